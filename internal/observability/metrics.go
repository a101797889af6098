package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meteo_etl"

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// download, clean and dashboard processes.
type Metrics struct {
	// Acquisition metrics.
	Archives                *prometheus.CounterVec // labels: outcome={downloaded,skipped,failed}
	ArchiveBytes            prometheus.Counter
	ArchiveDownloadDuration prometheus.Histogram

	// Normalization metrics.
	RowsExtracted    prometheus.Counter
	RowsCleaned      prometheus.Counter
	RowsDropped      prometheus.Counter
	RecordsPublished prometheus.Counter
	PipelineDuration prometheus.Histogram

	// Dashboard metrics.
	DatasetRows       prometheus.Gauge
	DashboardRequests *prometheus.CounterVec // labels: endpoint={page,view}
	FilteredRows      prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a private registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics were registered on.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}

// WriteTextfile dumps the current metric values in the node_exporter textfile
// format. The batch commands call it on exit when METRICS_TEXTFILE is set.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Gatherer())
}

func newMetrics() *Metrics {
	return &Metrics{
		Archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_total",
			Help:      "Archives processed by the download step, by outcome.",
		}, []string{"outcome"}),
		ArchiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Bytes written to the raw-data directory.",
		}),
		ArchiveDownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_download_duration_seconds",
			Help:      "Duration of a single archive download.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Raw rows read from the archives.",
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_cleaned_total",
			Help:      "Rows written to the cleaned dataset.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows dropped because their timestamp could not be parsed.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Cleaned records published to the Kafka sink.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the cleaned dataset loaded by the dashboard.",
		}),
		DashboardRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_requests_total",
			Help:      "Dashboard renders by endpoint.",
		}, []string{"endpoint"}),
		FilteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_filtered_rows",
			Help:      "Rows left in the filtered view per render.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Archives,
		m.ArchiveBytes,
		m.ArchiveDownloadDuration,
		m.RowsExtracted,
		m.RowsCleaned,
		m.RowsDropped,
		m.RecordsPublished,
		m.PipelineDuration,
		m.DatasetRows,
		m.DashboardRequests,
		m.FilteredRows,
	}
}
