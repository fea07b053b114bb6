package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNew_LevelFiltering verifies records below the configured level are
// dropped
func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "warn"

	log, closer, err := newWithStdout(cfg, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Info("hidden")
	log.Warn("listing unavailable", "url", "https://bank.gov.ua/")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "url=https://bank.gov.ua/")
}

// TestNew_WritesFile verifies the rotating file receives the same lines as
// stdout
func TestNew_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "logs", "nbudigest.log")

	log, closer, err := newWithStdout(cfg, &buf)
	require.NoError(t, err)

	log.Info("digest sent", "records", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digest sent")
	assert.Contains(t, string(data), "records=3")
	assert.Equal(t, buf.String(), string(data))
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}
