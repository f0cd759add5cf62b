package tui

import (
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type SnapshotProvider interface {
	GetSnapshot() Snapshot
	Refresh()
}

type viewMode int

const (
	viewModeList viewMode = iota
	viewModeTree
)

type Model struct {
	provider        SnapshotProvider
	snapshot        Snapshot
	refreshInterval time.Duration
	mode            viewMode
	cursor          int // index across all listed items, -1 = none
	openURL         func(string) tea.Cmd
}

type tickMsg time.Time

func NewModel(provider SnapshotProvider, refreshInterval time.Duration) Model {
	m := Model{
		provider:        provider,
		snapshot:        provider.GetSnapshot(),
		refreshInterval: refreshInterval,
		mode:            viewModeList,
		cursor:          -1,
		openURL:         openBrowser,
	}
	m.clampCursor()
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.provider.Refresh()
			m.snapshot = m.provider.GetSnapshot()
			m.clampCursor()
			return m, nil
		case "tab":
			if m.mode == viewModeList {
				m.mode = viewModeTree
			} else {
				m.mode = viewModeList
			}
			return m, nil
		}

		if m.mode != viewModeList {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < itemCount(m.snapshot)-1 {
				m.cursor++
			}
		case "home", "g":
			if itemCount(m.snapshot) > 0 {
				m.cursor = 0
			}
		case "end", "G":
			m.cursor = itemCount(m.snapshot) - 1
		case "enter", "o":
			if it, ok := selectedItem(m.snapshot, m.cursor); ok && it.URL != "" {
				return m, m.openURL(it.URL)
			}
		}

	case tickMsg:
		m.snapshot = m.provider.GetSnapshot()
		m.clampCursor()
		return m, tickCmd(m.refreshInterval)
	}

	return m, nil
}

func (m Model) View() string {
	if m.mode == viewModeTree {
		return renderTree(m.snapshot)
	}
	return renderList(m.snapshot, m.cursor)
}

// clampCursor selects the first item when there is none selected and keeps
// the cursor inside the list as items come and go.
func (m *Model) clampCursor() {
	n := itemCount(m.snapshot)
	switch {
	case n == 0:
		m.cursor = -1
	case m.cursor < 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func openBrowser(url string) tea.Cmd {
	return func() tea.Msg {
		name := "xdg-open"
		if runtime.GOOS == "darwin" {
			name = "open"
		}
		_ = exec.Command(name, url).Start()
		return nil
	}
}
