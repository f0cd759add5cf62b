package github

import "time"

// RawRecord is a pull request node as returned by the GraphQL search queries.
type RawRecord struct {
	ID             string       `json:"id"`
	Number         int          `json:"number"`
	Title          string       `json:"title"`
	URL            string       `json:"url"`
	IsDraft        *bool        `json:"isDraft"`
	CreatedAt      *time.Time   `json:"createdAt"`
	UpdatedAt      *time.Time   `json:"updatedAt"`
	MergedAt       *time.Time   `json:"mergedAt"`
	Repository     Repository   `json:"repository"`
	Author         *Actor       `json:"author"`
	ReviewDecision string       `json:"reviewDecision"`
	LatestReviews  *ReviewNodes `json:"latestReviews"`
	Commits        *CommitNodes `json:"commits"`
}

type Repository struct {
	NameWithOwner string `json:"nameWithOwner"`
}

type Actor struct {
	Login string `json:"login"`
}

type ReviewNodes struct {
	Nodes []Review `json:"nodes"`
}

type Review struct {
	Author      *Actor     `json:"author"`
	State       string     `json:"state"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

type CommitNodes struct {
	Nodes []CommitNode `json:"nodes"`
}

type CommitNode struct {
	Commit CommitInfo `json:"commit"`
}

type CommitInfo struct {
	OID               string       `json:"oid"`
	CommittedDate     *time.Time   `json:"committedDate"`
	StatusCheckRollup *StatusCheck `json:"statusCheckRollup"`
}

type StatusCheck struct {
	State string `json:"state"`
}

// Commit is the flattened most-recent commit of a pull request.
type Commit struct {
	SHA           string
	CommittedDate *time.Time
	CIState       string
}

const (
	DecisionApproved         = "APPROVED"
	DecisionChangesRequested = "CHANGES_REQUESTED"
)

// Draft reports whether the record is explicitly marked as a draft.
func (r RawRecord) Draft() bool {
	return r.IsDraft != nil && *r.IsDraft
}

// AuthorLogin is empty when the author is unknown (deleted account, ghost).
func (r RawRecord) AuthorLogin() string {
	if r.Author == nil {
		return ""
	}
	return r.Author.Login
}

// LastCommit returns the most recent commit, if the query exposed one.
func (r RawRecord) LastCommit() (Commit, bool) {
	if r.Commits == nil || len(r.Commits.Nodes) == 0 {
		return Commit{}, false
	}
	n := r.Commits.Nodes[0].Commit
	c := Commit{SHA: n.OID, CommittedDate: n.CommittedDate}
	if n.StatusCheckRollup != nil {
		c.CIState = n.StatusCheckRollup.State
	}
	return c, true
}

// Reviews returns the latest reviews in the order the platform listed them.
func (r RawRecord) Reviews() []Review {
	if r.LatestReviews == nil {
		return nil
	}
	return r.LatestReviews.Nodes
}

// QueryResult holds the four searches, in classification precedence order.
type QueryResult struct {
	NeedsReview    []RawRecord
	Authored       []RawRecord
	ReviewedByMe   []RawRecord
	RecentlyMerged []RawRecord
}

type searchResult struct {
	IssueCount int         `json:"issueCount"`
	Nodes      []RawRecord `json:"nodes"`
}

type searchResponse struct {
	Data struct {
		NeedsReview    searchResult `json:"needsReview"`
		Authored       searchResult `json:"authored"`
		ReviewedByMe   searchResult `json:"reviewedByMe"`
		RecentlyMerged searchResult `json:"recentlyMerged"`
	} `json:"data"`
}

func (r searchResponse) result() *QueryResult {
	return &QueryResult{
		NeedsReview:    nonEmpty(r.Data.NeedsReview.Nodes),
		Authored:       nonEmpty(r.Data.Authored.Nodes),
		ReviewedByMe:   nonEmpty(r.Data.ReviewedByMe.Nodes),
		RecentlyMerged: nonEmpty(r.Data.RecentlyMerged.Nodes),
	}
}

// nonEmpty drops nodes that are not pull requests; the search union yields {} for those.
func nonEmpty(nodes []RawRecord) []RawRecord {
	out := make([]RawRecord, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}
