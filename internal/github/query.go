package github

import (
	"fmt"
	"time"
)

const prFields = `
        id number title url isDraft createdAt updatedAt
        repository { nameWithOwner }
        author { login }
        reviewDecision
        latestReviews(first: 10) {
          nodes { author { login } state submittedAt }
        }
        commits(last: 1) {
          nodes { commit { oid committedDate statusCheckRollup { state } } }
        }`

const mergedFields = `
      id number title url createdAt mergedAt
      repository { nameWithOwner }
      author { login }`

// BuildQuery returns the GraphQL document with the four aliased searches.
func BuildQuery(mergedSince time.Time) string {
	since := mergedSince.UTC().Format("2006-01-02")
	return fmt.Sprintf(`{
  needsReview: search(query: "is:pr is:open review-requested:@me", type: ISSUE, first: 50) {
    issueCount
    nodes { ... on PullRequest { %[1]s } }
  }
  authored: search(query: "is:pr is:open author:@me", type: ISSUE, first: 50) {
    issueCount
    nodes { ... on PullRequest { %[1]s } }
  }
  reviewedByMe: search(query: "is:pr is:open reviewed-by:@me -author:@me -review-requested:@me", type: ISSUE, first: 50) {
    issueCount
    nodes { ... on PullRequest { %[1]s } }
  }
  recentlyMerged: search(query: "is:pr is:merged author:@me merged:>%[2]s", type: ISSUE, first: 20) {
    issueCount
    nodes { ... on PullRequest { %[3]s } }
  }
}`, prFields, since, mergedFields)
}

// MergedSince is the cutoff for the recently-merged search. Windows below one day are raised to one.
func MergedSince(now time.Time, windowDays int) time.Time {
	if windowDays < 1 {
		windowDays = 1
	}
	return now.AddDate(0, 0, -windowDays)
}
