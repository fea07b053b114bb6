package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps run history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the runs table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS digest_runs (
			run_id UUID PRIMARY KEY,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			extracted INTEGER NOT NULL DEFAULT 0,
			processed INTEGER NOT NULL DEFAULT 0,
			summarized INTEGER NOT NULL DEFAULT 0,
			email_sent BOOLEAN NOT NULL DEFAULT FALSE,
			error TEXT
		)`)
	return err
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// RecordRun inserts a finished run.
func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO digest_runs (
			run_id, triggered_by, started_at, finished_at,
			extracted, processed, summarized, email_sent, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO NOTHING`,
		run.RunID.String(), string(run.Trigger), run.StartedAt, run.FinishedAt,
		run.Extracted, run.Processed, run.Summarized, run.EmailSent, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateRunID
	}
	return nil
}

const selectPostgresRuns = `
	SELECT run_id::text, triggered_by, started_at, finished_at,
	       extracted, processed, summarized, email_sent, error
	FROM digest_runs
`

// GetRun retrieves a run by ID.
func (s *PostgresStore) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := s.pool.QueryRow(ctx, selectPostgresRuns+" WHERE run_id = $1", runID.String())
	run, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns runs newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := selectPostgresRuns + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

func scanPostgresRun(row pgx.Row) (*Run, error) {
	var runIDStr, trigger string
	var run Run

	err := row.Scan(
		&runIDStr, &trigger, &run.StartedAt, &run.FinishedAt,
		&run.Extracted, &run.Processed, &run.Summarized, &run.EmailSent,
		&run.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	run.Trigger = Trigger(trigger)
	return &run, nil
}
