// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the relational collaborator: one row per circuit
// document holding the current version counter and the published variant
// URLs. The surface is deliberately a narrow key-value-with-version-check
// interface, not a general query layer; the optimistic-concurrency
// allocation in the publisher is built on CompareAndSetVersion.
package store

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

	"github.com/pdiddy/circuitshare/pkg/types"
)

const dbFile = "circuits.db"

// Store manages the circuit version database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at dataDir/circuits.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS circuits (
		id TEXT PRIMARY KEY,
		current_version INTEGER NOT NULL,
		published_urls TEXT,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// ReadVersion returns the recorded version for id, or 0 when the document
// has never been published.
func (s *Store) ReadVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT current_version FROM circuits WHERE id = ?`, id,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version for %s: %w", id, err)
	}
	return version, nil
}

// CompareAndSetVersion writes next as the version for id only when the row
// still holds expected. It reports false when another writer got there
// first. An expected value of 0 means the row must not exist yet; the
// insert races are resolved by the primary-key constraint.
func (s *Store) CompareAndSetVersion(ctx context.Context, id string, expected, next int) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if expected == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO circuits (id, current_version, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			id, next, now,
		)
		if err != nil {
			return false, fmt.Errorf("inserting version row for %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("checking insert for %s: %w", id, err)
		}
		return n == 1, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE circuits SET current_version = ?, updated_at = ?
		 WHERE id = ? AND current_version = ?`,
		next, now, id, expected,
	)
	if err != nil {
		return false, fmt.Errorf("updating version for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking update for %s: %w", id, err)
	}
	return n == 1, nil
}

// SetPublishedURLs records the variant URLs of the latest successful
// publish. Called only after every variant write has landed in storage.
func (s *Store) SetPublishedURLs(ctx context.Context, id string, urls map[types.Variant]string) error {
	encoded, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encoding urls for %s: %w", id, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE circuits SET published_urls = ?, updated_at = ? WHERE id = ?`,
		string(encoded), now, id,
	)
	if err != nil {
		return fmt.Errorf("recording urls for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking url update for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("recording urls for %s: no version row", id)
	}
	return nil
}

// PublishedURLs returns the recorded variant URLs for id, or an empty map
// when none were recorded.
func (s *Store) PublishedURLs(ctx context.Context, id string) (map[types.Variant]string, error) {
	var encoded sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT published_urls FROM circuits WHERE id = ?`, id,
	).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return map[types.Variant]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading urls for %s: %w", id, err)
	}
	if !encoded.Valid || encoded.String == "" {
		return map[types.Variant]string{}, nil
	}

	urls := make(map[types.Variant]string)
	if err := json.Unmarshal([]byte(encoded.String), &urls); err != nil {
		return nil, fmt.Errorf("decoding urls for %s: %w", id, err)
	}
	return urls, nil
}
