package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcin-skalski/ghtray/internal/pr"
)

var (
	// CI colors
	colorSuccess = lipgloss.Color("46")  // green
	colorFailure = lipgloss.Color("196") // red
	colorPending = lipgloss.Color("214") // orange
	colorMuted   = lipgloss.Color("240") // gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("196")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Background(lipgloss.Color("237"))

	metaStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	treeOwnerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	treeRepoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	blockedStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFailure)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorPending)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)

func ciColor(status string) lipgloss.Color {
	switch status {
	case "SUCCESS":
		return colorSuccess
	case "FAILURE", "ERROR":
		return colorFailure
	case "PENDING", "EXPECTED":
		return colorPending
	default:
		return colorMuted
	}
}

func bucketIcon(b pr.Bucket) string {
	switch b {
	case pr.NeedsYourReview:
		return "👀"
	case pr.WaitingForReviewers:
		return "⏳"
	case pr.ReturnedToYou:
		return "↩️"
	case pr.Approved:
		return "✅"
	case pr.Drafts:
		return "📝"
	case pr.RecentlyMerged:
		return "🟣"
	case pr.WaitingForAuthor:
		return "💬"
	default:
		return "❓"
	}
}
