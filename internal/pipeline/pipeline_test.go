package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteo-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/meteo-etl/internal/domain"
	"github.com/couchcryptid/meteo-etl/internal/observability"
	"github.com/couchcryptid/meteo-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	records []domain.RawRecord
	err     error
}

func (m *mockExtractor) Extract(_ context.Context) ([]domain.RawRecord, error) {
	return m.records, m.err
}

type mockLoader struct {
	loaded []domain.Record
	err    error
}

func (m *mockLoader) Load(_ context.Context, records []domain.Record) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, records...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func raw(ts, temp, dept string) domain.RawRecord {
	return domain.RawRecord{
		StationID:   "1",
		StationName: "PARIS",
		Lat:         "48.8",
		Lon:         "2.3",
		Timestamp:   ts,
		Temperature: temp,
		DewPoint:    "90",
		Departement: dept,
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fixed := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	ext := &mockExtractor{records: []domain.RawRecord{
		raw("1905060112", "152", "75"),
		raw("garbage", "100", "75"),
		raw("1905060113", "160", "75"),
	}}
	primary := &mockLoader{}
	secondary := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, pipeline.NewCleaner(), discardLogger(), metrics, primary, secondary)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Extracted)
	assert.Equal(t, 2, summary.Cleaned)
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, fixed, summary.CleanedAt)

	require.Len(t, primary.loaded, 2)
	assert.Equal(t, primary.loaded, secondary.loaded)
	for _, r := range primary.loaded {
		assert.True(t, r.HasTime(), "every cleaned row must carry a timestamp")
	}

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RowsExtracted), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RowsCleaned), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsDropped), 0)
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: archive.ErrNoInputFiles}
	ldr := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewCleaner(), discardLogger(), observability.NewMetricsForTesting(), ldr)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, archive.ErrNoInputFiles))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_LoadError(t *testing.T) {
	ext := &mockExtractor{records: []domain.RawRecord{raw("1905060112", "152", "75")}}
	failing := &mockLoader{err: errors.New("disk full")}
	after := &mockLoader{}

	p := pipeline.New(ext, pipeline.NewCleaner(), discardLogger(), observability.NewMetricsForTesting(), failing, after)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, after.loaded, "later loaders must not run after a failure")
}

func TestCleaner_Transform(t *testing.T) {
	out, err := pipeline.NewCleaner().Transform(context.Background(), []domain.RawRecord{
		raw("", "1", "01"),
		raw("1890010100", "-57", "01"),
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, -5.7, *out[0].Temperature)
	assert.Equal(t, 9.0, *out[0].DewPoint)
}

func TestCleaner_Transform_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.NewCleaner().Transform(ctx, []domain.RawRecord{raw("1890010100", "1", "01")})
	require.ErrorIs(t, err, context.Canceled)
}

// TestPipeline_EndToEnd runs the archive reader, cleaner and CSV writer over
// a temporary raw-data directory.
func TestPipeline_EndToEnd(t *testing.T) {
	rawDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "cleaned", "meteo_cleaned.csv")

	header := "NUM_POSTE;NOM_USUEL;LAT;LON;ALTI;AAAAMMJJHH;FF;DD;T;TD;U;PMER;PSTAT"
	writeGzip(t, filepath.Join(rawDir, "HOR_departement_75_periode_1900-1909.csv.gz"),
		header,
		"1;PARIS;48.8;2.3;35;1905060112;3.2;180;152;90;65;1013;1010",
		"1;PARIS;48.8;2.3;35;19050601;3.2;180;152;90;65;1013;1010",
	)
	writeGzip(t, filepath.Join(rawDir, "HOR_departement_13_periode_1890-1899.csv.gz"),
		header,
		"13055001;MARSEILLE;43.3;5.4;7;1895073117;5.1;320;287;;40;;",
	)

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(
		archive.NewReader(rawDir, discardLogger()),
		pipeline.NewCleaner(),
		discardLogger(),
		metrics,
		csvstore.NewWriter(out, discardLogger()),
	)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Extracted)
	assert.Equal(t, 2, summary.Cleaned)

	records, err := csvstore.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, records, 2)

	type row struct {
		Dept        string
		Station     string
		Temperature float64
		Hour        int
		Year        int
		Month       int
	}
	got := make([]row, 0, len(records))
	for _, r := range records {
		got = append(got, row{r.Departement, r.StationName, *r.Temperature, r.Hour, r.Year, r.Month})
	}
	want := []row{
		{"13", "MARSEILLE", 28.7, 17, 1895, 7},
		{"75", "PARIS", 15.2, 12, 1905, 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cleaned rows mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, records[0].DewPoint)
	assert.Equal(t, 9.0, *records[1].DewPoint)
}

func writeGzip(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	_, err = io.WriteString(gz, strings.Join(lines, "\n")+"\n")
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}
