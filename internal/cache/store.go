// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists computed metric records between report runs so
// that a rerun on the same input can skip reloading them.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "metrics.db"

// Key identifies one cached metric record. Digest is the content hash of
// the input the record was computed from; a changed input misses the cache.
type Key struct {
	EntryID string
	Kind    string
	Digest  string
}

// Entry describes a cached record without its payload.
type Entry struct {
	EntryID  string    `json:"entry_id"`
	Kind     string    `json:"kind"`
	Digest   string    `json:"digest"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// Store manages the metrics cache SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at root/metrics.db, creating
// root and the schema when they do not exist.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	path := filepath.Join(root, dbFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS metrics (
			entry_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			digest TEXT NOT NULL,
			payload TEXT NOT NULL,
			stored_at TEXT NOT NULL,
			PRIMARY KEY (entry_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_entry ON metrics(entry_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get loads the record stored under key into out. It reports false when no
// record exists or the stored digest differs from key.Digest.
func (s *Store) Get(ctx context.Context, key Key, out any) (bool, error) {
	var digest, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT digest, payload FROM metrics WHERE entry_id = ? AND kind = ?`,
		key.EntryID, key.Kind,
	).Scan(&digest, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cached %s for %s: %w", key.Kind, key.EntryID, err)
	}
	if digest != key.Digest {
		return false, nil
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decoding cached %s for %s: %w", key.Kind, key.EntryID, err)
	}
	return true, nil
}

// Put stores v under key, replacing any previous record for the same entry
// and kind.
func (s *Store) Put(ctx context.Context, key Key, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s for %s: %w", key.Kind, key.EntryID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metrics (entry_id, kind, digest, payload, stored_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(entry_id, kind) DO UPDATE SET
			digest=excluded.digest, payload=excluded.payload, stored_at=excluded.stored_at`,
		key.EntryID, key.Kind, key.Digest, string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing %s for %s: %w", key.Kind, key.EntryID, err)
	}
	return nil
}

// List returns every cached record ordered by entry and kind.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, kind, digest, length(payload), stored_at
		 FROM metrics ORDER BY entry_id, kind`)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var storedAt string
		if err := rows.Scan(&e.EntryID, &e.Kind, &e.Digest, &e.Size, &storedAt); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		e.StoredAt, _ = time.Parse(time.RFC3339Nano, storedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes cached records. An empty entryID removes everything.
// It returns the number of records removed.
func (s *Store) Clear(ctx context.Context, entryID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if entryID == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM metrics`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM metrics WHERE entry_id = ?`, entryID)
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}
