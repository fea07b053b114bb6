package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FilePath returns the default config location, ~/.nbudigest/config.yaml.
func FilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nbudigest", "config.yaml"), nil
}

// Load builds the configuration. path is the --config flag value; when it is
// empty NBUDIGEST_CONFIG and then the default location are tried, and a
// missing default file is not an error. envFile is loaded into the process
// environment without overriding variables that are already set.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("NBUDIGEST_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		var err error
		if path, err = FilePath(); err != nil {
			return nil, err
		}
	}

	if err := loadFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the YAML at path over cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// WriteDefaultFile writes the defaults to path. It returns false when the
// file already exists and force is not set.
func WriteDefaultFile(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// applyEnv overrides cfg from the environment. Unprefixed names are the ones
// the deployment has always used for secrets.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if val := getenv(key); val != "" {
				*dst = val
				return
			}
		}
	}
	var errs []error
	boolean := func(dst *bool, key string) {
		if val := getenv(key); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(dst *int, key string) {
		if val := getenv(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str(&cfg.Storage.Dir, "NBUDIGEST_DATA_DIR")
	str(&cfg.Pipeline.Mode, "NBUDIGEST_FILTER_MODE")
	boolean(&cfg.Pipeline.IgnoreDate, "NBUDIGEST_IGNORE_DATE")
	integer(&cfg.Pipeline.Concurrency, "NBUDIGEST_CONCURRENCY")
	str(&cfg.Pipeline.Timezone, "NBUDIGEST_TIMEZONE")

	str(&cfg.Summarizer.APIKey, "NBUDIGEST_OPENAI_API_KEY", "OPENAI_API_KEY")
	str(&cfg.Summarizer.BaseURL, "NBUDIGEST_OPENAI_BASE_URL")
	str(&cfg.Summarizer.Model, "NBUDIGEST_OPENAI_MODEL")
	boolean(&cfg.Summarizer.SummarizeDocuments, "NBUDIGEST_SUMMARIZE_DOCUMENTS")

	str(&cfg.Mail.Host, "NBUDIGEST_SMTP_HOST")
	integer(&cfg.Mail.Port, "NBUDIGEST_SMTP_PORT")
	str(&cfg.Mail.Username, "NBUDIGEST_SMTP_USER", "EMAIL_USER")
	str(&cfg.Mail.Password, "NBUDIGEST_SMTP_PASS", "EMAIL_PASS")
	str(&cfg.Mail.From, "NBUDIGEST_MAIL_FROM")
	if val := getenv("EMAIL_RECIPIENTS"); val != "" {
		cfg.Mail.Recipients = splitList(val)
	}

	str(&cfg.Schedule.Cron, "NBUDIGEST_SCHEDULE")
	boolean(&cfg.Schedule.RunOnStart, "NBUDIGEST_RUN_ON_START")

	str(&cfg.History.Type, "NBUDIGEST_HISTORY_TYPE")
	str(&cfg.History.DSN, "NBUDIGEST_HISTORY_DSN")

	str(&cfg.Logging.Level, "NBUDIGEST_LOG_LEVEL")
	str(&cfg.Logging.Path, "NBUDIGEST_LOG_PATH")

	str(&cfg.API.Listen, "NBUDIGEST_API_LISTEN")

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
