package pr

import "github.com/marcin-skalski/ghtray/internal/github"

// Classify turns the four query results into items, one per pull request id.
// Lists are visited in precedence order (needs review, authored, reviewed by me,
// recently merged) and the first list an id appears in decides its bucket.
func Classify(res *github.QueryResult) []Item {
	if res == nil {
		return nil
	}

	var items []Item
	seen := make(map[string]bool)
	add := func(rec github.RawRecord, classify func(github.RawRecord) Item) {
		if seen[rec.ID] {
			return
		}
		seen[rec.ID] = true
		items = append(items, classify(rec))
	}

	for _, rec := range res.NeedsReview {
		add(rec, func(r github.RawRecord) Item { return makeItem(r, NeedsYourReview) })
	}
	for _, rec := range res.Authored {
		add(rec, classifyAuthored)
	}
	for _, rec := range res.ReviewedByMe {
		add(rec, func(r github.RawRecord) Item { return makeItem(r, WaitingForAuthor) })
	}
	for _, rec := range res.RecentlyMerged {
		add(rec, classifyMerged)
	}

	return items
}

// AuthoredBucket decides where a pull request opened by the viewer belongs.
func AuthoredBucket(rec github.RawRecord) Bucket {
	switch {
	case rec.Draft():
		return Drafts
	case rec.ReviewDecision == github.DecisionApproved:
		return Approved
	case rec.ReviewDecision == github.DecisionChangesRequested:
		return ReturnedToYou
	default:
		return WaitingForReviewers
	}
}

func classifyAuthored(rec github.RawRecord) Item {
	return makeItem(rec, AuthoredBucket(rec))
}

// Merged items report the merge time as their update time and carry no commit data.
func classifyMerged(rec github.RawRecord) Item {
	it := baseItem(rec, RecentlyMerged)
	it.UpdatedAt = rec.MergedAt
	it.LastCommitDate = rec.MergedAt
	return it
}

func makeItem(rec github.RawRecord, b Bucket) Item {
	it := baseItem(rec, b)
	it.UpdatedAt = rec.UpdatedAt
	if c, ok := rec.LastCommit(); ok {
		it.LastCommitSHA = c.SHA
		it.LastCommitDate = c.CommittedDate
		it.CIStatus = c.CIState
	}
	return it
}

func baseItem(rec github.RawRecord, b Bucket) Item {
	return Item{
		ID:        rec.ID,
		Number:    rec.Number,
		Title:     rec.Title,
		URL:       rec.URL,
		Repo:      rec.Repository.NameWithOwner,
		Author:    rec.AuthorLogin(),
		Bucket:    b,
		CreatedAt: rec.CreatedAt,
	}
}
