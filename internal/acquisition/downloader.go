// Package acquisition fetches the raw hourly archives listed in a
// domain.Catalog into a local directory.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

// Outcome labels for the archives metric.
const (
	OutcomeDownloaded = "downloaded"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

// Summary counts the outcome of one Run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader fetches catalog entries over plain HTTP GET.
type Downloader struct {
	dir        string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.httpClient = c }
}

// WithClock sets the clock used to time downloads.
func WithClock(c clockwork.Clock) Option {
	return func(d *Downloader) { d.clock = c }
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(dir string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Downloader {
	d := &Downloader{
		dir: dir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run downloads every catalog entry sequentially. Existing files are left
// untouched. A failed entry is logged and counted; it never stops the run.
// The only error returned is a failure to create the target directory.
func (d *Downloader) Run(ctx context.Context, catalog domain.Catalog) (Summary, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create raw dir: %w", err)
	}

	var s Summary
	for _, ref := range catalog.Entries() {
		target := filepath.Join(d.dir, ref.Filename())
		logger := d.logger.With("departement", ref.Departement, "period", ref.Period)

		if _, err := os.Stat(target); err == nil {
			logger.Info("archive already present", "path", target)
			d.metrics.Archives.WithLabelValues(OutcomeSkipped).Inc()
			s.Skipped++
			continue
		}

		start := d.clock.Now()
		n, err := d.fetch(ctx, ref.URL, target, logger)
		if err != nil {
			logger.Error("archive download failed", "url", ref.URL, "error", err)
			d.metrics.Archives.WithLabelValues(OutcomeFailed).Inc()
			s.Failed++
			continue
		}

		d.metrics.ArchiveDownloadDuration.Observe(d.clock.Since(start).Seconds())
		d.metrics.ArchiveBytes.Add(float64(n))
		d.metrics.Archives.WithLabelValues(OutcomeDownloaded).Inc()
		s.Downloaded++
		logger.Info("archive downloaded", "path", target, "bytes", n)
	}

	d.logger.Info("download finished",
		"downloaded", s.Downloaded,
		"skipped", s.Skipped,
		"failed", s.Failed,
	)
	return s, nil
}

// fetch streams url into target. A partially written file is left in place.
func (d *Downloader) fetch(ctx context.Context, url, target string, logger *slog.Logger) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("archive request: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", target, err)
	}

	pw := &progressWriter{w: f, total: resp.ContentLength, logger: logger}
	n, copyErr := io.Copy(pw, resp.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return n, fmt.Errorf("write %s: %w", target, err)
	}
	return n, nil
}

// progressWriter logs at debug level each time another tenth of a known
// Content-Length has been written.
type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	next    int64
	logger  *slog.Logger
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.total > 0 && p.written >= p.next {
		p.logger.Debug("download progress",
			"bytes", p.written,
			"total", p.total,
			"percent", p.written*100/p.total,
		)
		p.next = p.written + p.total/10
	}
	return n, err
}
