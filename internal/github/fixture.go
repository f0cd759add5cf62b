package github

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fixture is a Source serving fixed data. It backs demo mode and tests.
type Fixture struct {
	mu     sync.Mutex
	login  string
	result *QueryResult
	err    error
	calls  int
}

func NewFixture(login string, result *QueryResult) *Fixture {
	return &Fixture{login: login, result: result}
}

// Set replaces the data (and failure) returned by subsequent fetches.
func (f *Fixture) Set(result *QueryResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
	f.err = err
}

func (f *Fixture) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fixture) Viewer(ctx context.Context) (string, error) {
	return f.login, nil
}

func (f *Fixture) Fetch(ctx context.Context, q Query) (*QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &QueryResult{}, nil
	}
	return f.result, nil
}

type demoPR struct {
	repo     string
	number   int
	author   string
	title    string
	draft    bool
	decision string
	ci       string
	age      time.Duration
}

// DemoFixture returns a Fixture with a plausible spread of pull requests across all buckets.
func DemoFixture(now time.Time) *Fixture {
	needs := []demoPR{
		{"acme/billing-svc", 342, "samantha", "Add invoice PDF generation endpoint", false, "", "SUCCESS", 2 * time.Hour},
		{"acme/web-app", 891, "danielk", "Fix timezone handling in scheduler", false, "", "PENDING", 26 * time.Hour},
		{"acme/auth-svc", 156, "rchen", "Add SAML SSO support for enterprise accounts", false, "", "FAILURE", 4 * 24 * time.Hour},
	}
	authored := []demoPR{
		{"acme/api-gateway", 214, "demo", "Rate limiting per API key", false, DecisionApproved, "SUCCESS", 3 * time.Hour},
		{"acme/billing-svc", 337, "demo", "Refactor subscription tier logic", false, DecisionChangesRequested, "FAILURE", 2 * 24 * time.Hour},
		{"acme/web-app", 885, "demo", "Dark mode toggle in user preferences", false, "", "PENDING", 50 * time.Minute},
		{"acme/deploy-tools", 78, "demo", "Add canary deployment support to rollout script", true, "", "", 6 * 24 * time.Hour},
	}
	reviewed := []demoPR{
		{"acme/web-app", 878, "mlopez", "Accessibility improvements for nav components", false, "", "SUCCESS", 9 * 24 * time.Hour},
		{"oss/data-pipeline", 45, "jpark", "Add retry logic for failed ETL jobs", false, "", "ERROR", 40 * 24 * time.Hour},
	}
	merged := []demoPR{
		{"acme/auth-svc", 153, "demo", "Fix session expiry race condition", false, "", "", 20 * time.Hour},
	}

	build := func(prefix string, prs []demoPR, isMerged bool) []RawRecord {
		out := make([]RawRecord, 0, len(prs))
		for _, p := range prs {
			created := now.Add(-p.age)
			updated := created.Add(p.age / 2)
			rec := RawRecord{
				ID:             fmt.Sprintf("%s_%s_%d", prefix, p.repo, p.number),
				Number:         p.number,
				Title:          p.title,
				URL:            fmt.Sprintf("https://github.com/%s/pull/%d", p.repo, p.number),
				CreatedAt:      &created,
				Repository:     Repository{NameWithOwner: p.repo},
				Author:         &Actor{Login: p.author},
				ReviewDecision: p.decision,
			}
			if isMerged {
				rec.MergedAt = &updated
				out = append(out, rec)
				continue
			}
			draft := p.draft
			rec.IsDraft = &draft
			rec.UpdatedAt = &updated
			commit := CommitInfo{OID: fmt.Sprintf("%040x", p.number), CommittedDate: &updated}
			if p.ci != "" {
				commit.StatusCheckRollup = &StatusCheck{State: p.ci}
			}
			rec.Commits = &CommitNodes{Nodes: []CommitNode{{Commit: commit}}}
			out = append(out, rec)
		}
		return out
	}

	return NewFixture("demo", &QueryResult{
		NeedsReview:    build("PR_needs", needs, false),
		Authored:       build("PR_own", authored, false),
		ReviewedByMe:   build("PR_rev", reviewed, false),
		RecentlyMerged: build("PR_merged", merged, true),
	})
}
