// Package nbudigest runs the daily bank.gov.ua digest: extraction, summaries
// and mail, on a schedule or once on demand.
package nbudigest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/history"
	"github.com/pevans/nbudigest/newsfeed"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a run is requested while another is
// still going.
var ErrRunInProgress = errors.New("a digest run is already in progress")

// Extractor produces the processed list.
type Extractor interface {
	Run(ctx context.Context) (*discovery.Result, error)
}

// Summarizer turns the processed list into the summarized list.
type Summarizer interface {
	Run(ctx context.Context) ([]newsfeed.NewsRecord, error)
}

// Sender mails the summarized list and reports whether anything was sent.
type Sender interface {
	Run(ctx context.Context) (bool, error)
}

// ServiceConfig wires the stages of a digest run.
type ServiceConfig struct {
	Extractor  Extractor
	Summarizer Summarizer
	Sender     Sender
	// History is optional; runs are only logged when it is nil.
	History history.Store
	Logger  *slog.Logger

	// Schedule is a standard five-field cron expression evaluated in
	// Location.
	Schedule   string
	Location   *time.Location
	RunOnStart bool

	Now func() time.Time
}

// Service runs digests. RunOnce can be called directly; Run adds the
// schedule.
type Service struct {
	cfg      ServiceConfig
	logger   *slog.Logger
	now      func() time.Time
	running  sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewService creates a service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Extractor == nil || cfg.Summarizer == nil || cfg.Sender == nil {
		return nil, errors.New("service requires extractor, summarizer and sender")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		cfg:      cfg,
		logger:   logger,
		now:      now,
		stopChan: make(chan struct{}),
	}, nil
}

// RunOnce performs extraction, summarization and sending in order and
// records the outcome. A listing failure still lets the later stages run so
// that the stale summarized list is replaced; any other stage error stops
// the run. The returned Run is non-nil unless ErrRunInProgress is returned.
func (s *Service) RunOnce(ctx context.Context, trigger history.Trigger) (*history.Run, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	run := &history.Run{
		RunID:     uuid.New(),
		Trigger:   trigger,
		StartedAt: s.now(),
	}
	log := s.logger.With("run_id", run.RunID.String(), "trigger", string(trigger))
	log.Info("digest run starting")

	err := s.runStages(ctx, run, log)

	finished := s.now()
	run.FinishedAt = &finished
	if err != nil {
		msg := err.Error()
		run.Error = &msg
		log.Error("digest run failed", "error", err)
	} else {
		log.Info("digest run finished",
			"extracted", run.Extracted,
			"processed", run.Processed,
			"summarized", run.Summarized,
			"email_sent", run.EmailSent,
			"duration", finished.Sub(run.StartedAt))
	}

	if s.cfg.History != nil {
		// The run context may already be cancelled; history is still written.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if recErr := s.cfg.History.RecordRun(recordCtx, *run); recErr != nil {
			log.Error("failed to record run", "error", recErr)
		}
	}

	return run, err
}

func (s *Service) runStages(ctx context.Context, run *history.Run, log *slog.Logger) error {
	var errs []error

	result, err := s.cfg.Extractor.Run(ctx)
	if result != nil {
		run.Extracted = result.Extracted
		run.Processed = len(result.Records)
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("extract: %w", err))
		if !errors.Is(err, discovery.ErrListingUnavailable) {
			return errors.Join(errs...)
		}
		log.Warn("continuing with an empty processed list")
	}

	summarized, err := s.cfg.Summarizer.Run(ctx)
	run.Summarized = len(summarized)
	if err != nil {
		errs = append(errs, fmt.Errorf("summarize: %w", err))
		return errors.Join(errs...)
	}

	sent, err := s.cfg.Sender.Run(ctx)
	run.EmailSent = sent
	if err != nil {
		errs = append(errs, fmt.Errorf("send: %w", err))
	}
	return errors.Join(errs...)
}

// Run schedules digests until ctx is cancelled or Stop is called. With
// RunOnStart a run happens immediately. Scheduled ticks that fire while a
// run is still going are skipped.
func (s *Service) Run(ctx context.Context) error {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(s.cfg.Schedule, func() {
		s.tryRun(ctx, history.TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Schedule, err)
	}

	s.logger.Info("digest service starting",
		"schedule", s.cfg.Schedule, "location", s.cfg.Location.String())
	c.Start()

	if s.cfg.RunOnStart {
		s.tryRun(ctx, history.TriggerStartup)
	}

	select {
	case <-ctx.Done():
		s.logger.Info("digest service stopping (context cancelled)")
		<-c.Stop().Done()
		return ctx.Err()
	case <-s.stopChan:
		s.logger.Info("digest service stopping")
		<-c.Stop().Done()
		return nil
	}
}

// Stop signals Run to return once the current run, if any, finishes.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) tryRun(ctx context.Context, trigger history.Trigger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunOnce(ctx, trigger); errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("skipping run", "trigger", string(trigger), "reason", err)
	}
}

// cronLogger adapts slog to the cron package's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
