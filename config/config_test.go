package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/pevans/nbudigest/discovery"
	"github.com/pevans/nbudigest/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory and clears variables that would
// leak in from the host.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"NBUDIGEST_CONFIG", "NBUDIGEST_DATA_DIR", "NBUDIGEST_FILTER_MODE",
		"NBUDIGEST_TIMEZONE", "NBUDIGEST_HISTORY_TYPE", "NBUDIGEST_LOG_LEVEL",
		"NBUDIGEST_SCHEDULE", "OPENAI_API_KEY", "NBUDIGEST_OPENAI_API_KEY",
		"EMAIL_USER", "EMAIL_PASS", "EMAIL_RECIPIENTS",
	} {
		t.Setenv(key, "")
	}
	return home
}

// TestDefault_Valid verifies the defaults pass validation
func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0 20 * * *", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "gpt-4o-mini", cfg.Summarizer.Model)
	assert.Equal(t, 1500, cfg.Summarizer.MaxTokens)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, filepath.Join("data", "processed_news.json"), cfg.ProcessedPath())
	assert.Equal(t, filepath.Join("data", "history.db"), cfg.HistoryDSN())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", loc.String())
}

// TestLoad_NoFile verifies a missing default file falls back to defaults
func TestLoad_NoFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default().Pipeline, cfg.Pipeline)
}

// TestLoad_ExplicitMissingFile verifies a named file must exist
func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

// TestLoad_Precedence verifies env beats the file and the file beats
// defaults
func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(home, ".nbudigest", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	content := `pipeline:
  mode: yesterday
  concurrency: 3
  fetch_timeout: 10s
storage:
  dir: /var/lib/nbudigest
mail:
  recipients: [file@example.com]
categories:
  - id: tabs-news-feed-4-1
    name: Новини
    kind: feed
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("NBUDIGEST_FILTER_MODE", "none")
	t.Setenv("EMAIL_RECIPIENTS", "a@example.com, b@example.com,")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Pipeline.Mode, "env wins over file")
	assert.Equal(t, 3, cfg.Pipeline.Concurrency, "file wins over default")
	assert.Equal(t, 10*time.Second, cfg.Pipeline.FetchTimeout)
	assert.Equal(t, "/var/lib/nbudigest", cfg.Storage.Dir)
	assert.Equal(t, "processed_news.json", cfg.Storage.ProcessedFile, "unset keys keep defaults")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.Recipients)
	assert.Equal(t, "sk-test", cfg.Summarizer.APIKey)
	require.Len(t, cfg.Categories, 1)
	assert.Equal(t, scraper.KindFeed, cfg.Categories[0].Kind)

	opts, err := cfg.PipelineOptions()
	require.NoError(t, err)
	assert.Equal(t, discovery.FilterNone, opts.Mode)
	assert.Equal(t, 3, opts.Concurrency)
}

// TestLoad_EnvFile verifies .env values apply without overriding the real
// environment
func TestLoad_EnvFile(t *testing.T) {
	isolate(t)
	t.Setenv("NBUDIGEST_SMTP_HOST", "")
	os.Unsetenv("NBUDIGEST_SMTP_HOST")
	t.Setenv("NBUDIGEST_MAIL_FROM", "")
	os.Unsetenv("NBUDIGEST_MAIL_FROM")
	t.Setenv("NBUDIGEST_API_LISTEN", ":9090")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "NBUDIGEST_SMTP_HOST=relay.example.com\nNBUDIGEST_MAIL_FROM=digest@example.com\nNBUDIGEST_API_LISTEN=:1111\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "relay.example.com", cfg.Mail.Host)
	assert.Equal(t, "digest@example.com", cfg.Sender())
	assert.Equal(t, ":9090", cfg.API.Listen, "process env wins over .env")

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "a missing .env is not an error")
}

// TestLoad_BadEnv verifies malformed numeric and boolean values are reported
func TestLoad_BadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("NBUDIGEST_CONCURRENCY", "many")

	_, err := Load("", "")
	assert.ErrorContains(t, err, "NBUDIGEST_CONCURRENCY")
}

// TestLoad_InvalidYAML verifies parse errors surface
func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unclosed"), 0o600))

	_, err := Load(path, "")
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no categories", func(c *Config) { c.Categories = nil }, ErrNoCategories},
		{"bad kind", func(c *Config) { c.Categories[0].Kind = "gallery" }, ErrInvalidCategory},
		{"duplicate id", func(c *Config) { c.Categories[1].ID = c.Categories[0].ID }, ErrInvalidCategory},
		{"bad mode", func(c *Config) { c.Pipeline.Mode = "tomorrow" }, ErrInvalidPipeline},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }, ErrInvalidPipeline},
		{"bad timezone", func(c *Config) { c.Pipeline.Timezone = "Mars/Olympus" }, ErrInvalidTimezone},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "every evening" }, ErrInvalidSchedule},
		{"bad history", func(c *Config) { c.History.Type = "mongo" }, ErrInvalidHistory},
		{"postgres without dsn", func(c *Config) { c.History.Type = "postgres" }, ErrInvalidHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

// TestRequire verifies stage-specific checks
func TestRequire(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireSummarizer(), ErrMissingAPIKey)
	assert.ErrorIs(t, cfg.RequireMail(), ErrMissingMailConfig)

	cfg.Summarizer.APIKey = "sk"
	cfg.Mail.Username = "bot@example.com"
	cfg.Mail.Password = "secret"
	cfg.Mail.Recipients = []string{"a@example.com"}
	assert.NoError(t, cfg.RequireSummarizer())
	assert.NoError(t, cfg.RequireMail())
	assert.Equal(t, "bot@example.com", cfg.Sender())
}

// TestWriteDefaultFile verifies the written file loads back and is not
// overwritten without force
func TestWriteDefaultFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")

	created, err := WriteDefaultFile(path, false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteDefaultFile(path, false)
	require.NoError(t, err)
	assert.False(t, created)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, Default().Pipeline, cfg.Pipeline)
	assert.Equal(t, Default().Categories, cfg.Categories)
}
