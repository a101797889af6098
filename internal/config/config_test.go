package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.RawDir)
	assert.Equal(t, "data/cleaned/meteo_cleaned.csv", cfg.CleanedPath)
	assert.Equal(t, ":8501", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, 5*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, SizeModeClip, cfg.MapSizeMode)
	assert.True(t, cfg.MapHoverTimestamp)
	assert.False(t, cfg.KafkaSinkEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "meteo-cleaned-records", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("RAW_DIR", "/srv/raw")
	t.Setenv("CLEANED_PATH", "/srv/cleaned/out.csv")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/meteo.prom")
	t.Setenv("DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("MAP_SIZE_MODE", "abs")
	t.Setenv("MAP_HOVER_TIMESTAMP", "false")
	t.Setenv("KAFKA_SINK_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/raw", cfg.RawDir)
	assert.Equal(t, "/srv/cleaned/out.csv", cfg.CleanedPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/var/lib/node_exporter/meteo.prom", cfg.MetricsTextfile)
	assert.Equal(t, 90*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, SizeModeAbs, cfg.MapSizeMode)
	assert.False(t, cfg.MapHoverTimestamp)
	assert.True(t, cfg.KafkaSinkEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDownloadTimeout(t *testing.T) {
	for _, v := range []string{"bad", "-1s", "0s"} {
		t.Setenv("DOWNLOAD_TIMEOUT", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "DOWNLOAD_TIMEOUT")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidMapSizeMode(t *testing.T) {
	t.Setenv("MAP_SIZE_MODE", "sqrt")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_SIZE_MODE")
}

func TestLoad_InvalidHoverTimestamp(t *testing.T) {
	t.Setenv("MAP_HOVER_TIMESTAMP", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_HOVER_TIMESTAMP")
}
