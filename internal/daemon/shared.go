package daemon

import (
	"sync"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
)

// Shared holds the state written by the poll cycle and read by presentation.
// The cycle is the only writer; readers get copies.
type Shared struct {
	mu        sync.RWMutex
	viewer    string
	items     []pr.Item // after the repo deny-list
	all       []pr.Item // before it, for the repo tree
	lastError string
	lastFetch *time.Time
	hint      string
	fetching  bool
}

// View is a consistent copy of Shared.
type View struct {
	Viewer    string
	Items     []pr.Item
	All       []pr.Item
	LastError string
	LastFetch *time.Time
	Hint      string
	Fetching  bool
}

func (s *Shared) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		Viewer:    s.viewer,
		Items:     append([]pr.Item(nil), s.items...),
		All:       append([]pr.Item(nil), s.all...),
		LastError: s.lastError,
		Hint:      s.hint,
		Fetching:  s.fetching,
	}
	if s.lastFetch != nil {
		t := *s.lastFetch
		v.LastFetch = &t
	}
	return v
}

func (s *Shared) setResult(viewer string, items, all []pr.Item, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = viewer
	s.items = items
	s.all = all
	s.lastError = ""
	s.hint = ""
	s.lastFetch = &fetchedAt
}

// setError keeps the previous items so the last good state stays visible.
func (s *Shared) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *Shared) setHint(hint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = hint
}

func (s *Shared) setFetching(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = on
}
