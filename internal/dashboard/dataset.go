// Package dashboard derives filtered views and chart figures from the
// cleaned dataset. Everything except Dataset is a pure function of its
// inputs, so concurrent requests share the loaded records without locking.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/meteo-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

// ErrNotLoaded is reported by CheckReadiness until Load has succeeded.
var ErrNotLoaded = errors.New("dataset not loaded")

// Dataset is a read-only handle on the cleaned dataset. The file is read at
// most once per process; picking up a new file requires a restart.
type Dataset struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics

	once    sync.Once
	records []domain.Record
	err     error
	ready   atomic.Bool
}

// NewDataset creates a handle for the cleaned file at path.
func NewDataset(path string, logger *slog.Logger, metrics *observability.Metrics) *Dataset {
	return &Dataset{path: path, logger: logger, metrics: metrics}
}

// NewDatasetFromRecords returns an already-loaded handle.
func NewDatasetFromRecords(records []domain.Record) *Dataset {
	d := &Dataset{records: records}
	d.once.Do(func() {})
	d.ready.Store(true)
	return d
}

// Load reads the file on first call. Later calls return the first result.
func (d *Dataset) Load() error {
	d.once.Do(func() {
		d.records, d.err = csvstore.ReadFile(d.path)
		if d.err != nil {
			return
		}
		d.metrics.DatasetRows.Set(float64(len(d.records)))
		d.logger.Info("dataset loaded", "path", d.path, "rows", len(d.records))
		d.ready.Store(true)
	})
	return d.err
}

// Records returns the loaded rows. Callers must not modify the slice.
func (d *Dataset) Records() []domain.Record {
	if !d.ready.Load() {
		return nil
	}
	return d.records
}

// CheckReadiness implements the shared readiness checker.
func (d *Dataset) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return ErrNotLoaded
	}
	return nil
}
