package http

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/meteo-etl/internal/dashboard"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

// Server serves the dashboard page, its JSON view API, and the health,
// readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dataset    *dashboard.Dataset
	mapOpts    dashboard.MapOptions
	tmpl       *template.Template
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The dataset doubles as the readiness
// checker.
func NewServer(addr string, ds *dashboard.Dataset, opts dashboard.MapOptions, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	tmpl, err := loadTemplates(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dataset: ds,
		mapOpts: opts,
		tmpl:    tmpl,
		metrics: metrics,
		logger:  logger,
	}

	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/api/view", s.handleView).Methods(http.MethodGet)
	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(ds)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return s, nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
