package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pevans/nbudigest"
	"github.com/pevans/nbudigest/config"
	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/history"
	"github.com/pevans/nbudigest/logger"
	"github.com/pevans/nbudigest/mailer"
	"github.com/pevans/nbudigest/newsfeed"
	"github.com/pevans/nbudigest/summarizer"
)

type commonOptions struct {
	configPath *string
	envFile    *string
}

func addCommonFlags(fs *flag.FlagSet) commonOptions {
	return commonOptions{
		configPath: fs.String("config", "", "Config file path"),
		envFile:    fs.String("env-file", ".env", "Environment file path"),
	}
}

// app holds what every command builds from the configuration.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	loc        *time.Location
	client     *http.Client
	processed  *newsfeed.RecordStore
	summarized *newsfeed.RecordStore
	tracked    *newsfeed.TrackedStore
	history    history.Store
}

func loadApp(opts commonOptions) (*app, error) {
	cfg, err := config.Load(*opts.configPath, *opts.envFile)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	processed, err := newsfeed.NewRecordStore(cfg.ProcessedPath())
	if err != nil {
		return nil, err
	}
	summarized, err := newsfeed.NewRecordStore(cfg.SummarizedPath())
	if err != nil {
		return nil, err
	}
	tracked, err := newsfeed.NewTrackedStore(cfg.TrackedPath())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     log,
		logCloser:  closer,
		loc:        loc,
		client:     &http.Client{Timeout: cfg.Pipeline.FetchTimeout},
		processed:  processed,
		summarized: summarized,
		tracked:    tracked,
	}, nil
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
	a.logCloser.Close()
}

func (a *app) pipeline() (*discovery.Pipeline, error) {
	opts, err := a.cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	return discovery.NewPipeline(discovery.PipelineConfig{
		Site:       a.cfg.Site,
		Categories: a.cfg.Categories,
		Options:    opts,
		Client:     a.client,
		Tracked:    a.tracked,
		Output:     a.processed,
		Logger:     a.logger.With("stage", "extract"),
	})
}

func (a *app) summarizer() (*summarizer.Summarizer, error) {
	if err := a.cfg.RequireSummarizer(); err != nil {
		return nil, err
	}

	completer := summarizer.NewOpenAICompleter(summarizer.OpenAIConfig{
		APIKey:      a.cfg.Summarizer.APIKey,
		BaseURL:     a.cfg.Summarizer.BaseURL,
		Model:       a.cfg.Summarizer.Model,
		MaxTokens:   a.cfg.Summarizer.MaxTokens,
		Temperature: a.cfg.Summarizer.Temperature,
	})

	var opts []summarizer.Option
	if a.cfg.Summarizer.SummarizeDocuments {
		opts = append(opts, summarizer.WithDocumentFetcher(
			discovery.NewFetcher(a.client, a.cfg.Site.UserAgent)))
	}
	return summarizer.New(completer, a.processed, a.summarized,
		a.logger.With("stage", "summarize"), opts...), nil
}

func (a *app) mailer() (*mailer.Mailer, error) {
	if err := a.cfg.RequireMail(); err != nil {
		return nil, err
	}

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     a.cfg.Mail.Host,
		Port:     a.cfg.Mail.Port,
		Username: a.cfg.Mail.Username,
		Password: a.cfg.Mail.Password,
	})
	return mailer.New(sender, a.summarized, a.cfg.Sender(), a.cfg.Mail.Recipients,
		a.loc, a.logger.With("stage", "send")), nil
}

func (a *app) openHistory(ctx context.Context) (history.Store, error) {
	if a.history != nil {
		return a.history, nil
	}
	store, err := history.Open(ctx, a.cfg.History.Type, a.cfg.HistoryDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	a.history = store
	return store, nil
}

func (a *app) service(ctx context.Context) (*nbudigest.Service, error) {
	pipeline, err := a.pipeline()
	if err != nil {
		return nil, err
	}
	s, err := a.summarizer()
	if err != nil {
		return nil, err
	}
	m, err := a.mailer()
	if err != nil {
		return nil, err
	}
	store, err := a.openHistory(ctx)
	if err != nil {
		return nil, err
	}

	return nbudigest.NewService(nbudigest.ServiceConfig{
		Extractor:  pipeline,
		Summarizer: s,
		Sender:     m,
		History:    store,
		Logger:     a.logger,
		Schedule:   a.cfg.Schedule.Cron,
		Location:   a.loc,
		RunOnStart: a.cfg.Schedule.RunOnStart,
	})
}
