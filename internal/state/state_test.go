package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []pr.Item {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 3, 2, 10, 30, 0, 0, time.UTC)
	return []pr.Item{
		{
			ID: "PR_1", Number: 1, Title: "Add retries", URL: "https://github.com/acme/api/pull/1",
			Repo: "acme/api", Author: "alice", Bucket: pr.NeedsYourReview,
			CreatedAt: &created, UpdatedAt: &updated,
			LastCommitSHA: "abc123", LastCommitDate: &updated, CIStatus: "SUCCESS",
		},
		{
			ID: "PR_2", Number: 2, Title: "Drop v1", URL: "https://github.com/acme/web/pull/2",
			Repo: "acme/web", Author: "bob", Bucket: pr.RecentlyMerged,
			UpdatedAt: &updated,
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(context.Background(), filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"json":   NewFileStore(filepath.Join(dir, "nested", "state.json")),
		"sqlite": sq,
	}
}

func TestStoreEmptyLoad(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			snap, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Nil(t, snap.LastFetch)
			assert.NotNil(t, snap.Items)
			assert.Empty(t, snap.Items)
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	fetched := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	want := NewSnapshot(sampleItems(), fetched)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got.LastFetch)
			assert.True(t, fetched.Equal(*got.LastFetch))
			assert.Equal(t, want.Items, got.Items)
		})
	}
}

func TestStoreSaveReplacesWholesale(t *testing.T) {
	items := sampleItems()
	first := NewSnapshot(items, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC))
	second := NewSnapshot(items[1:], time.Date(2025, 3, 3, 12, 2, 0, 0, time.UTC))

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, first))
			require.NoError(t, s.Save(ctx, second))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, got.Items, 1)
			assert.Contains(t, got.Items, "PR_2")
			assert.True(t, second.LastFetch.Equal(*got.LastFetch))
		})
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(context.Background(), Empty()))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prs": {}`)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	snap, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.Empty(t, snap.Items)
}

func TestFileStoreBucketsPersistByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(context.Background(), NewSnapshot(sampleItems(), time.Now())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bucket": "needs_your_review"`)
	assert.Contains(t, string(data), `"bucket": "recently_merged"`)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(ctx, "json", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, "sqlite", filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis", filepath.Join(dir, "a"))
	assert.Error(t, err)
}
