// Package history records one row per digest run so operators can see what
// each scheduled or manual run produced.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrUnknownStore   = errors.New("history type must be sqlite or postgres")
	ErrDuplicateRunID = errors.New("run with this ID already exists")
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
)

// Run is the outcome of one fetch, summarize and send sequence.
type Run struct {
	RunID      uuid.UUID  `json:"run_id"`
	Trigger    Trigger    `json:"trigger"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Extracted  int        `json:"extracted"`
	Processed  int        `json:"processed"`
	Summarized int        `json:"summarized"`
	EmailSent  bool       `json:"email_sent"`
	// Error joins the messages of every failed step.
	Error *string `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without errors.
func (r *Run) Succeeded() bool {
	return r.FinishedAt != nil && r.Error == nil
}

// Store persists runs.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID uuid.UUID) (*Run, error)
	// ListRuns returns up to limit runs, newest first. A limit of zero
	// returns all runs.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Open returns the store for storeType ("sqlite" or "postgres").
func Open(ctx context.Context, storeType, dsn string) (Store, error) {
	switch storeType {
	case "", "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	}
	return nil, fmt.Errorf("%w: got %q", ErrUnknownStore, storeType)
}
