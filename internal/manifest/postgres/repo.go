// Package postgres implements a Postgres-backed manifest.Repository using
// pgx v5. Use it when several machines filter against shared infrastructure
// and the run history should live in one place.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"vcfilter/internal/manifest"

	"github.com/jackc/pgx/v5/pgxpool"
)

func init() {
	manifest.Register("postgres", func(ctx context.Context, cfg manifest.Config) (manifest.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS vcfilter_runs (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	job        TEXT NOT NULL,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	samples    TEXT NOT NULL,
	workers    INTEGER NOT NULL,
	lines      BIGINT NOT NULL,
	data       BIGINT NOT NULL,
	malformed  BIGINT NOT NULL,
	matched    INTEGER NOT NULL,
	checksum   TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	elapsed_ms BIGINT NOT NULL
)`

// Repository is a Postgres-backed implementation of manifest.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects via pgxpool, ensures the runs table exists, and
// returns a Repository.
func NewRepository(ctx context.Context, cfg manifest.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create runs table: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// RecordRun inserts one run row.
func (r *Repository) RecordRun(ctx context.Context, run manifest.Run) error {
	const insertSQL = `
INSERT INTO vcfilter_runs (job, input, output, samples, workers, lines, data, malformed, matched, checksum, started_at, elapsed_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, insertSQL,
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
		run.StartedAt.UTC(),
		run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
