package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/marcin-skalski/ghtray/internal/pr"
	"github.com/mattn/go-runewidth"
)

const (
	titleWidth = 36
	errorWidth = 50
)

func renderHeader(snap Snapshot) string {
	var b strings.Builder

	title := "ghtray"
	if snap.Viewer != "" {
		title += " │ @" + snap.Viewer
	}
	title += fmt.Sprintf(" │ %d PRs", snap.Total)
	if snap.Demo {
		title += " │ demo"
	}
	if snap.Fetching {
		title += " │ ↻"
	}
	b.WriteString(headerStyle.Render(title))

	switch {
	case snap.Error != "":
		b.WriteString(" ")
		b.WriteString(badgeStyle.Render("⚠"))
	case snap.Badge > 0:
		b.WriteString(" ")
		b.WriteString(badgeStyle.Render(fmt.Sprintf("%d", snap.Badge)))
	}
	b.WriteString("\n")

	if snap.Error != "" {
		b.WriteString(errorStyle.Render("⚠ " + truncate(snap.Error, errorWidth)))
		b.WriteString("\n")
	}
	if snap.Hint != "" {
		b.WriteString(hintStyle.Render(snap.Hint))
		b.WriteString("\n")
	}
	return b.String()
}

// renderList draws the non-empty buckets; cursor indexes the items across all of them.
func renderList(snap Snapshot, cursor int) string {
	var b strings.Builder
	b.WriteString(renderHeader(snap))

	idx := 0
	shown := false
	for _, bucket := range snap.Buckets {
		if len(bucket.Items) == 0 {
			continue
		}
		shown = true
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s %s (%d)",
			bucketIcon(bucket.Bucket), bucket.Bucket.Label(), len(bucket.Items))))
		b.WriteString("\n")

		for _, it := range bucket.Items {
			line := formatItem(it, snap.Timestamp)
			if idx == cursor {
				b.WriteString(selectedItemStyle.Render("▸ " + line))
			} else {
				b.WriteString(itemStyle.Render("  " + line))
			}
			b.WriteString("\n")
			idx++
		}
	}

	if !shown {
		msg := "No pull requests"
		if snap.Error != "" {
			msg = "Unable to fetch PRs"
		}
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("  " + msg))
		b.WriteString("\n")
	}

	if sel, ok := selectedItem(snap, cursor); ok {
		b.WriteString("\n")
		b.WriteString(metaStyle.Render("  " + sel.URL))
		if sel.AvatarPath != "" {
			b.WriteString("\n")
			b.WriteString(metaStyle.Render("  avatar: " + sel.AvatarPath))
		}
		b.WriteString("\n")
	}

	b.WriteString(renderFooter(snap, "q:quit r:refresh ↑↓:select enter:open tab:repos"))
	return b.String()
}

// formatItem renders "#N title ✓ (repo) · 3d · @author".
func formatItem(it ItemState, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", it.Number, truncate(it.Title, titleWidth))
	if ci := pr.CIIndicator(it.CIStatus); ci != "" {
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(ciColor(it.CIStatus)).Render(ci))
	}
	fmt.Fprintf(&b, " (%s)", it.Repo)
	if !it.Created.IsZero() {
		b.WriteString(" · ")
		b.WriteString(pr.RelativeAge(it.Created, now))
	}
	if it.Author != "" {
		b.WriteString(metaStyle.Render(" · @" + it.Author))
	}
	return b.String()
}

func renderTree(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(renderHeader(snap))
	b.WriteString(sectionStyle.Render("📦 Repositories"))
	b.WriteString("\n")

	if len(snap.Orgs) == 0 {
		b.WriteString(emptyStyle.Render("  (no repositories seen yet)"))
		b.WriteString("\n")
	}

	for i, org := range snap.Orgs {
		isLast := i == len(snap.Orgs)-1
		prefix, childPrefix := "├─", "│  "
		if isLast {
			prefix, childPrefix = "└─", "   "
		}
		b.WriteString(treeOwnerStyle.Render(fmt.Sprintf("%s %s", prefix, org.Owner)))
		b.WriteString("\n")

		for j, repo := range org.Repos {
			repoPrefix := "├─"
			if j == len(org.Repos)-1 {
				repoPrefix = "└─"
			}
			line := fmt.Sprintf("%s%s %s (%d)", childPrefix, repoPrefix, repo.Name, repo.Count)
			if repo.Blocked {
				b.WriteString(blockedStyle.Render(line))
				b.WriteString(metaStyle.Render(" blocked"))
			} else {
				b.WriteString(treeRepoStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(renderFooter(snap, "q:quit r:refresh tab:pull requests"))
	return b.String()
}

func renderFooter(snap Snapshot, keys string) string {
	updated := "Never updated"
	if snap.LastFetch != nil {
		updated = "Updated " + humanize.RelTime(*snap.LastFetch, snap.Timestamp, "ago", "from now")
	}
	return footerStyle.Render(updated + " │ " + keys)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func selectedItem(snap Snapshot, cursor int) (ItemState, bool) {
	if cursor < 0 {
		return ItemState{}, false
	}
	idx := 0
	for _, bucket := range snap.Buckets {
		if cursor < idx+len(bucket.Items) {
			return bucket.Items[cursor-idx], true
		}
		idx += len(bucket.Items)
	}
	return ItemState{}, false
}

func itemCount(snap Snapshot) int {
	n := 0
	for _, bucket := range snap.Buckets {
		n += len(bucket.Items)
	}
	return n
}
