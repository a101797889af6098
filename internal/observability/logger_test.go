package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteo-etl/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{LogLevel: "info", LogFormat: "json"}, "clean")

	logger.Debug("hidden")
	logger.Info("cleaned dataset written", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cleaned dataset written", entry["msg"])
	assert.Equal(t, "clean", entry["app"])
	assert.InDelta(t, 3, entry["rows"], 0)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{LogLevel: "debug", LogFormat: "text"}, "download")

	logger.Debug("archive already present", "file", "HOR_departement_75_periode_1900-1909.csv.gz")
	assert.Contains(t, buf.String(), "archive already present")
	assert.Contains(t, buf.String(), "HOR_departement_75_periode_1900-1909.csv.gz")
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, "dashboard")

	assert.Same(t, logger, slog.Default())
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
