// Command clean normalizes every raw archive in RAW_DIR into the single
// cleaned dataset at CLEANED_PATH, optionally publishing the cleaned rows to
// Kafka as well. Any failure exits with status 1.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/meteo-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-etl/internal/adapter/csvstore"
	kafkaadapter "github.com/couchcryptid/meteo-etl/internal/adapter/kafka"
	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/observability"
	"github.com/couchcryptid/meteo-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg, "clean")
	metrics := observability.NewMetrics()
	defer func() {
		if cfg.MetricsTextfile == "" {
			return
		}
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loaders := []pipeline.Loader{csvstore.NewWriter(cfg.CleanedPath, logger)}
	if cfg.KafkaSinkEnabled {
		sink := kafkaadapter.NewWriter(cfg, logger, metrics)
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, sink)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		archive.NewReader(cfg.RawDir, logger),
		pipeline.NewCleaner(),
		logger,
		metrics,
		loaders...,
	)

	if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		return 1
	}
	return 0
}
