package pr

import (
	"fmt"
	"strings"
	"time"
)

// Item is a classified pull request. It is also the shape persisted in snapshots.
type Item struct {
	ID             string     `json:"id"`
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Repo           string     `json:"repo"`
	Author         string     `json:"author"`
	Bucket         Bucket     `json:"bucket"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	LastCommitSHA  string     `json:"last_commit_sha,omitempty"`
	LastCommitDate *time.Time `json:"last_commit_date,omitempty"`
	CIStatus       string     `json:"ci_status,omitempty"`
}

// ShortRepo returns the repository name without its owner.
func (i Item) ShortRepo() string {
	return ShortRepo(i.Repo)
}

// Summary is the "#123 Title (repo)" line used in notifications.
func (i Item) Summary() string {
	return fmt.Sprintf("#%d %s (%s)", i.Number, i.Title, i.ShortRepo())
}

// LastActivity is the updated time, falling back to the created time.
func (i Item) LastActivity() time.Time {
	if i.UpdatedAt != nil {
		return *i.UpdatedAt
	}
	if i.CreatedAt != nil {
		return *i.CreatedAt
	}
	return time.Time{}
}

func ShortRepo(repo string) string {
	if idx := strings.LastIndex(repo, "/"); idx >= 0 {
		return repo[idx+1:]
	}
	return repo
}

// CIIndicator renders a CI rollup state as a compact glyph.
func CIIndicator(status string) string {
	switch status {
	case "SUCCESS":
		return "✓"
	case "FAILURE", "ERROR":
		return "✗"
	case "PENDING", "EXPECTED":
		return "◐"
	default:
		return ""
	}
}

// RelativeAge formats the time elapsed since t as now, 5m, 4h, 3d, 2mo or 1y.
func RelativeAge(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(diff.Minutes())
	if mins < 1 {
		return "now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	hours := int(diff.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%dd", days)
	}
	if days < 365 {
		return fmt.Sprintf("%dmo", days/30)
	}
	return fmt.Sprintf("%dy", days/365)
}

// Authors returns the distinct non-empty authors in first-seen order.
func Authors(items []Item) []string {
	seen := make(map[string]bool)
	var authors []string
	for _, it := range items {
		if it.Author == "" || seen[it.Author] {
			continue
		}
		seen[it.Author] = true
		authors = append(authors, it.Author)
	}
	return authors
}
