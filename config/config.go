// Package config resolves the digest configuration from defaults, a YAML
// file, an optional .env file and the environment, in that order of
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/logger"
	"github.com/pevans/nbudigest/scraper"
	"github.com/robfig/cron/v3"
)

var (
	ErrNoCategories      = errors.New("at least one category is required")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidTimezone   = errors.New("invalid timezone")
	ErrInvalidSchedule   = errors.New("invalid cron schedule")
	ErrInvalidHistory    = errors.New("history type must be sqlite or postgres")
	ErrInvalidPipeline   = errors.New("invalid pipeline settings")
	ErrMissingAPIKey     = errors.New("summarizer API key is not set")
	ErrMissingMailConfig = errors.New("mail credentials and recipients are required")
)

// PipelineConfig tunes the extraction run.
type PipelineConfig struct {
	Mode                string        `yaml:"mode"`
	IgnoreDate          bool          `yaml:"ignore_date"`
	DedupLinks          bool          `yaml:"dedup_links"`
	Concurrency         int           `yaml:"concurrency"`
	ReadabilityFallback bool          `yaml:"readability_fallback"`
	Timezone            string        `yaml:"timezone"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
}

// StorageConfig names the JSON files passed between stages.
type StorageConfig struct {
	Dir            string `yaml:"dir"`
	ProcessedFile  string `yaml:"processed_file"`
	SummarizedFile string `yaml:"summarized_file"`
	TrackedFile    string `yaml:"tracked_file"`
}

// SummarizerConfig configures the completion API.
type SummarizerConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	Model              string  `yaml:"model"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float32 `yaml:"temperature"`
	SummarizeDocuments bool    `yaml:"summarize_documents"`
}

// MailConfig configures digest delivery.
type MailConfig struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
}

// ScheduleConfig configures the daemon.
type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// HistoryConfig selects the run history backend. An empty DSN for sqlite
// means history.db inside the storage directory.
type HistoryConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// APIConfig enables the read-only HTTP API when Listen is set.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// Config is the full application configuration.
type Config struct {
	Site       scraper.SiteConfig `yaml:"site"`
	Categories []scraper.Category `yaml:"categories"`
	Pipeline   PipelineConfig     `yaml:"pipeline"`
	Storage    StorageConfig      `yaml:"storage"`
	Summarizer SummarizerConfig   `yaml:"summarizer"`
	Mail       MailConfig         `yaml:"mail"`
	Schedule   ScheduleConfig     `yaml:"schedule"`
	History    HistoryConfig      `yaml:"history"`
	Logging    logger.Config      `yaml:"logging"`
	API        APIConfig          `yaml:"api"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Site:       scraper.DefaultSiteConfig(),
		Categories: scraper.DefaultCategories(),
		Pipeline: PipelineConfig{
			Mode:         string(discovery.FilterToday),
			DedupLinks:   true,
			Concurrency:  discovery.DefaultConcurrency,
			Timezone:     "Europe/Kyiv",
			FetchTimeout: discovery.DefaultFetchTimeout,
		},
		Storage: StorageConfig{
			Dir:            "data",
			ProcessedFile:  "processed_news.json",
			SummarizedFile: "summarized_news.json",
			TrackedFile:    "strategic_docs.json",
		},
		Summarizer: SummarizerConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   1500,
			Temperature: 0.5,
		},
		Mail: MailConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Schedule: ScheduleConfig{
			Cron:       "0 20 * * *",
			RunOnStart: true,
		},
		History: HistoryConfig{Type: "sqlite"},
		Logging: logger.DefaultConfig(),
	}
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.ID == "" || cat.Name == "" || !cat.Kind.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, cat.ID)
		}
		if seen[cat.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCategory, cat.ID)
		}
		seen[cat.ID] = true
	}

	if _, err := discovery.ParseFilterMode(c.Pipeline.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidPipeline)
	}
	if c.Pipeline.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive", ErrInvalidPipeline)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	switch c.History.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidHistory, c.History.Type)
	}
	if c.History.Type == "postgres" && c.History.DSN == "" {
		return fmt.Errorf("%w: postgres requires a dsn", ErrInvalidHistory)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// RequireSummarizer reports whether the summarize stage can run.
func (c *Config) RequireSummarizer() error {
	if c.Summarizer.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// RequireMail reports whether the send stage can run.
func (c *Config) RequireMail() error {
	if c.Mail.Username == "" || c.Mail.Password == "" || len(c.Mail.Recipients) == 0 {
		return ErrMissingMailConfig
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}
	return loc, nil
}

// PipelineOptions converts the pipeline section for discovery.
func (c *Config) PipelineOptions() (discovery.Options, error) {
	mode, err := discovery.ParseFilterMode(c.Pipeline.Mode)
	if err != nil {
		return discovery.Options{}, err
	}
	loc, err := c.Location()
	if err != nil {
		return discovery.Options{}, err
	}
	return discovery.Options{
		Mode:                mode,
		IgnoreDate:          c.Pipeline.IgnoreDate,
		DedupLinks:          c.Pipeline.DedupLinks,
		Concurrency:         c.Pipeline.Concurrency,
		ReadabilityFallback: c.Pipeline.ReadabilityFallback,
		Location:            loc,
	}, nil
}

func (c *Config) ProcessedPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.ProcessedFile)
}

func (c *Config) SummarizedPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.SummarizedFile)
}

func (c *Config) TrackedPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.TrackedFile)
}

// HistoryDSN returns the history DSN with the sqlite default filled in.
func (c *Config) HistoryDSN() string {
	if c.History.DSN == "" && c.History.Type == "sqlite" {
		return filepath.Join(c.Storage.Dir, "history.db")
	}
	return c.History.DSN
}

// Sender returns the From address, falling back to the SMTP username.
func (c *Config) Sender() string {
	if c.Mail.From != "" {
		return c.Mail.From
	}
	return c.Mail.Username
}
