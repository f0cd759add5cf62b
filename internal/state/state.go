package state

import (
	"context"
	"fmt"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
)

// Snapshot is the classification baseline carried between poll cycles.
type Snapshot struct {
	LastFetch *time.Time         `json:"last_fetch,omitempty"`
	Items     map[string]pr.Item `json:"prs"`
}

func Empty() Snapshot {
	return Snapshot{Items: map[string]pr.Item{}}
}

// NewSnapshot indexes items by id, stamped with fetchedAt.
func NewSnapshot(items []pr.Item, fetchedAt time.Time) Snapshot {
	m := make(map[string]pr.Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	t := fetchedAt
	return Snapshot{LastFetch: &t, Items: m}
}

// Store persists one Snapshot. Save replaces the previous one wholesale.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Open returns the store for driver ("json" or "sqlite") at path.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "", "json":
		return NewFileStore(path), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", driver)
	}
}
