// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists enrichment results in a SQLite database so runs can
// be queried afterwards. It is an optional second sink next to the CSV output.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/doi-enrich/pkg/types"
)

// Store manages the results SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the results database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
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
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT NOT NULL,
			metadata TEXT,
			resolved_url TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_doi ON results(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_results_status ON results(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// WriteRow inserts one result. Absent fields are stored as NULL, not as
// placeholder text.
func (s *Store) WriteRow(res types.RowResult) error {
	var metadata, resolved sql.NullString
	if res.Metadata != nil && res.Metadata.Present() {
		metadata = sql.NullString{String: string(res.Metadata.Payload), Valid: true}
	}
	if res.Resolution != nil && res.Resolution.Present() {
		resolved = sql.NullString{String: res.Resolution.URL, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO results (doi, metadata, resolved_url, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		res.DOI, metadata, resolved, string(res.Status), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting result for %s: %w", res.DOI, err)
	}
	return nil
}

// Count returns the number of stored results with the given status, or all
// results when status is empty.
func (s *Store) Count(status types.Status) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM results WHERE status = ?`, string(status)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}
