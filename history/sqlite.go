package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps run history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		triggered_by TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		extracted INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		summarized INTEGER NOT NULL DEFAULT 0,
		email_sent INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts a finished run.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	query := `
		INSERT INTO runs (
			run_id, triggered_by, started_at, finished_at,
			extracted, processed, summarized, email_sent, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID.String(),
		string(run.Trigger),
		formatTime(&run.StartedAt),
		formatTime(run.FinishedAt),
		run.Extracted,
		run.Processed,
		run.Summarized,
		run.EmailSent,
		run.Error,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicateRunID
		}
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT run_id, triggered_by, started_at, finished_at,
	       extracted, processed, summarized, email_sent, error
	FROM runs
`

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE run_id = ?", runID.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + " ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var runIDStr, trigger, startedAtStr string
	var finishedAtStr, errorStr sql.NullString
	var run Run

	err := row.Scan(
		&runIDStr, &trigger, &startedAtStr, &finishedAtStr,
		&run.Extracted, &run.Processed, &run.Summarized, &run.EmailSent,
		&errorStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}
	run.Trigger = Trigger(trigger)
	run.StartedAt = parseTime(startedAtStr)
	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if errorStr.Valid {
		run.Error = &errorStr.String
	}
	return &run, nil
}

const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Fixed-width UTC so that lexical order in the column matches time order
	return t.UTC().Truncate(0).Format(storedTimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
