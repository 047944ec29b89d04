// Package sqlite implements a SQLite-backed manifest.Repository using
// database/sql. A local file database is the default manifest store: it
// needs no server and one filter run writes exactly one row.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"vcfilter/internal/manifest"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func init() {
	manifest.Register("sqlite", func(ctx context.Context, cfg manifest.Config) (manifest.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	job        TEXT NOT NULL,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	samples    TEXT NOT NULL,
	workers    INTEGER NOT NULL,
	lines      INTEGER NOT NULL,
	data       INTEGER NOT NULL,
	malformed  INTEGER NOT NULL,
	matched    INTEGER NOT NULL,
	checksum   TEXT NOT NULL,
	started_at TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL
)`

// Repository is a SQLite-backed implementation of manifest.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN, ensures
// the runs table exists, and returns a Repository.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:vcfilter.db?cache=shared"
//	"vcfilter.db"
func NewRepository(ctx context.Context, cfg manifest.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Basic ping with a short deadline to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create runs table: %w", err)
	}

	return &Repository{db: db}, nil
}

// RecordRun inserts one run row.
func (r *Repository) RecordRun(ctx context.Context, run manifest.Run) error {
	const insertSQL = `
INSERT INTO runs (job, input, output, samples, workers, lines, data, malformed, matched, checksum, started_at, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, insertSQL,
		run.Job,
		run.Input,
		run.Output,
		run.Samples,
		run.Workers,
		run.Lines,
		run.Data,
		run.Malformed,
		run.Matched,
		run.Checksum,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }
