// Command dashboard serves the interactive dashboard over the cleaned
// dataset at CLEANED_PATH. The dataset is read once at startup.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/meteo-etl/internal/adapter/http"
	"github.com/couchcryptid/meteo-etl/internal/config"
	"github.com/couchcryptid/meteo-etl/internal/dashboard"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, "dashboard")
	metrics := observability.NewMetrics()

	ds := dashboard.NewDataset(cfg.CleanedPath, logger, metrics)
	if err := ds.Load(); err != nil {
		logger.Error("failed to load dataset", "path", cfg.CleanedPath, "error", err)
		os.Exit(1)
	}

	opts := dashboard.MapOptions{
		SizeMode:       dashboard.SizeMode(cfg.MapSizeMode),
		HoverTimestamp: cfg.MapHoverTimestamp,
	}
	srv, err := httpadapter.NewServer(cfg.HTTPAddr, ds, opts, metrics, logger)
	if err != nil {
		logger.Error("failed to create http server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
