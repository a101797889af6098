package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Map point-size derivations for the dashboard scatter.
const (
	SizeModeClip = "clip"
	SizeModeAbs  = "abs"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	RawDir          string
	CleanedPath     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	DownloadTimeout time.Duration

	// Dashboard map configuration.
	MapSizeMode       string
	MapHoverTimestamp bool

	// Optional Kafka sink for cleaned records.
	KafkaSinkEnabled bool
	KafkaBrokers     []string
	KafkaSinkTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	downloadTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("DOWNLOAD_TIMEOUT", "5m"))
	if err != nil || downloadTimeout <= 0 {
		return nil, errors.New("invalid DOWNLOAD_TIMEOUT")
	}

	hoverTimestamp, err := parseBool("MAP_HOVER_TIMESTAMP", true)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_SINK_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RawDir:          sharedcfg.EnvOrDefault("RAW_DIR", "data/raw"),
		CleanedPath:     sharedcfg.EnvOrDefault("CLEANED_PATH", "data/cleaned/meteo_cleaned.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8501"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		DownloadTimeout: downloadTimeout,

		MapSizeMode:       sharedcfg.EnvOrDefault("MAP_SIZE_MODE", SizeModeClip),
		MapHoverTimestamp: hoverTimestamp,

		KafkaSinkEnabled: kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "meteo-cleaned-records"),
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: json, text)", cfg.LogFormat)
	}
	switch cfg.MapSizeMode {
	case SizeModeClip, SizeModeAbs:
	default:
		return nil, fmt.Errorf("invalid MAP_SIZE_MODE %q (allowed: clip, abs)", cfg.MapSizeMode)
	}
	if cfg.KafkaSinkEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_SINK_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_SINK_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}
