package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
	_ "modernc.org/sqlite"
)

const lastFetchKey = "last_fetch"

// SQLiteStore keeps one row per item plus a key/value meta table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			bucket TEXT NOT NULL,
			repo TEXT NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init state schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Empty()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, lastFetchKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Empty(), fmt.Errorf("load last fetch: %w", err)
	default:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Empty(), fmt.Errorf("parse last fetch %q: %w", raw, err)
		}
		snap.LastFetch = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM items`)
	if err != nil {
		return Empty(), fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return Empty(), fmt.Errorf("scan item: %w", err)
		}
		var it pr.Item
		if err := json.Unmarshal([]byte(data), &it); err != nil {
			return Empty(), fmt.Errorf("decode item %s: %w", id, err)
		}
		snap.Items[id] = it
	}
	if err := rows.Err(); err != nil {
		return Empty(), fmt.Errorf("iterate items: %w", err)
	}
	return snap, nil
}

// Save replaces every stored item and the last-fetch stamp in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for id, it := range snap.Items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, bucket, repo, data) VALUES (?, ?, ?, ?)`,
			id, it.Bucket.ID(), it.Repo, string(data)); err != nil {
			return fmt.Errorf("insert item %s: %w", id, err)
		}
	}

	if snap.LastFetch == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, lastFetchKey)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			lastFetchKey, snap.LastFetch.UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return fmt.Errorf("save last fetch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
