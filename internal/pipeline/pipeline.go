package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
)

// Extractor reads every raw row from the source.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Transformer converts raw rows into cleaned records, dropping rows that
// cannot be cleaned.
type Transformer interface {
	Transform(ctx context.Context, raw []domain.RawRecord) ([]domain.Record, error)
}

// Loader writes cleaned records to a destination.
type Loader interface {
	Load(ctx context.Context, records []domain.Record) error
}

// Summary describes one completed run.
type Summary struct {
	RunID     string
	Extracted int
	Cleaned   int
	Dropped   int
	CleanedAt time.Time
	Duration  time.Duration
}

// Pipeline orchestrates a single extract-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline. Loaders run in order; the first is the system of
// record and a failure in any of them aborts the run.
func New(e Extractor, t Transformer, logger *slog.Logger, metrics *observability.Metrics, loaders ...Loader) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes extract, transform and every load once. Any error aborts the
// run and is returned wrapped with its stage.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := domain.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started")

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsExtracted.Add(float64(len(raw)))

	records, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		return Summary{}, fmt.Errorf("transform: %w", err)
	}
	dropped := len(raw) - len(records)
	p.metrics.RowsDropped.Add(float64(dropped))

	for _, l := range p.loaders {
		if err := l.Load(ctx, records); err != nil {
			return Summary{}, fmt.Errorf("load: %w", err)
		}
	}
	p.metrics.RowsCleaned.Add(float64(len(records)))

	end := domain.Now()
	summary := Summary{
		RunID:     runID,
		Extracted: len(raw),
		Cleaned:   len(records),
		Dropped:   dropped,
		CleanedAt: end,
		Duration:  end.Sub(start),
	}
	p.metrics.PipelineDuration.Observe(summary.Duration.Seconds())

	logger.Info("pipeline finished",
		"extracted", summary.Extracted,
		"cleaned", summary.Cleaned,
		"dropped", summary.Dropped,
		"duration", summary.Duration,
	)
	return summary, nil
}
