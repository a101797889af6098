// Command download fetches the raw hourly archives listed in the default
// catalog into RAW_DIR. Archives already on disk are skipped. Failed
// downloads are logged and do not change the exit status.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/meteo-etl/internal/acquisition"
	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, "download")
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := acquisition.NewDownloader(cfg.RawDir, cfg.DownloadTimeout, logger, metrics)
	if _, err := d.Run(ctx, domain.DefaultCatalog); err != nil {
		logger.Error("download failed", "error", err)
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
}
