package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// DatetimeLayout is how timestamps are written to the cleaned dataset.
const DatetimeLayout = "2006-01-02 15:04:05"

// Writer persists cleaned records as a single comma-delimited file.
// It implements pipeline.Loader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for the given output path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// Load writes all records, replacing any previous output. The file is
// written to a temporary sibling and renamed into place.
func (w *Writer) Load(ctx context.Context, records []domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".meteo_cleaned-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}

	w.logger.Info("cleaned dataset written", "path", w.path, "rows", len(records))
	return nil
}

// Encode writes the header and one row per record.
func Encode(out io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(domain.CleanedColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range records {
		if err := cw.Write(encodeRecord(records[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func encodeRecord(r domain.Record) []string {
	dt := ""
	if r.HasTime() {
		dt = r.Datetime.UTC().Format(DatetimeLayout)
	}
	return []string{
		r.StationID,
		r.StationName,
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		formatFloat(r.Altitude),
		dt,
		formatFloat(r.WindSpeed),
		formatFloat(r.WindDir),
		formatFloat(r.Temperature),
		formatFloat(r.DewPoint),
		formatFloat(r.Humidity),
		formatFloat(r.PressureSea),
		formatFloat(r.PressureStation),
		r.Departement,
		strconv.Itoa(r.Hour),
		strconv.Itoa(r.Year),
		strconv.Itoa(r.Month),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ReadFile loads a cleaned dataset from disk.
func ReadFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cleaned dataset: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// Decode parses a cleaned dataset. Columns are matched by header name, so
// column order may differ from CleanedColumns but every column must exist.
// A datetime that cannot be parsed is kept as the zero time.
func Decode(in io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range domain.CleanedColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []domain.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, decodeRow(row, idx))
	}
	return out, nil
}

func decodeRow(row []string, idx map[string]int) domain.Record {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return domain.Record{
		StationID:       get("station_id"),
		StationName:     get("station_name"),
		Lat:             parseFloat(get("lat")),
		Lon:             parseFloat(get("lon")),
		Altitude:        parseFloat(get("altitude")),
		Datetime:        parseDatetime(get("datetime")),
		WindSpeed:       parseFloat(get("wind_speed")),
		WindDir:         parseFloat(get("wind_dir")),
		Temperature:     parseFloat(get("temperature")),
		DewPoint:        parseFloat(get("dew_point")),
		Humidity:        parseFloat(get("humidity")),
		PressureSea:     parseFloat(get("pressure_sea")),
		PressureStation: parseFloat(get("pressure_station")),
		Departement:     get("departement"),
		Hour:            parseInt(get("hour")),
		Year:            parseInt(get("year")),
		Month:           parseInt(get("month")),
	}
}

var datetimeLayouts = []string{DatetimeLayout, time.RFC3339, "2006-01-02"}

// parseDatetime coerces unparseable values to the zero time.
func parseDatetime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseFloat(s string) *float64 {
	if s == "" || slices.Contains([]string{"nan", "NaN", "NA"}, s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// parseInt accepts "12" and "12.0" (integer columns written as floats).
func parseInt(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
