package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// ErrNoInputFiles is returned when the raw-data directory holds no archive.
var ErrNoInputFiles = errors.New("no input files")

// Cells matching one of these are loaded as missing values.
var nanValues = []string{"", "NA", "NaN"}

// Reader loads every archive of a raw-data directory.
// It implements pipeline.Extractor.
type Reader struct {
	dir    string
	logger *slog.Logger
}

// NewReader creates a Reader over dir.
func NewReader(dir string, logger *slog.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

// Files lists the *.csv.gz archives of the directory in discovery order.
func (r *Reader) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, "*.csv.gz"))
	if err != nil {
		return nil, fmt.Errorf("glob archives: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Extract reads all archives, tags each row with the department taken from
// its filename, projects the fixed column allow-list and concatenates the
// tables in discovery order. A missing column in any archive aborts the run.
func (r *Reader) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	files, err := r.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .csv.gz files found in %s", ErrNoInputFiles, r.dir)
	}

	var (
		combined dataframe.DataFrame
		have     bool
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.logger.Info("reading archive", "file", filepath.Base(path))
		df, err := readArchive(path)
		if err != nil {
			return nil, fmt.Errorf("read archive %s: %w", filepath.Base(path), err)
		}

		if df.Nrow() == 0 {
			r.logger.Warn("archive has no rows", "file", filepath.Base(path))
			continue
		}
		if !have {
			combined, have = df, true
			continue
		}
		combined = combined.RBind(df)
		if combined.Err != nil {
			return nil, fmt.Errorf("concat archive %s: %w", filepath.Base(path), combined.Err)
		}
	}

	if !have {
		return []domain.RawRecord{}, nil
	}
	return toRawRecords(combined), nil
}

func readArchive(path string) (dataframe.DataFrame, error) {
	dept, err := domain.DepartmentFromFilename(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	return LoadTable(gz, dept)
}

// LoadTable parses a semicolon-delimited table, adds the departement column
// and keeps only domain.SourceColumns. All values are loaded as strings.
// A table with a header but no rows yields an empty frame with the same
// columns.
func LoadTable(r io.Reader, dept string) (dataframe.DataFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read table: %w", err)
	}
	if header, ok := headerOnly(data); ok {
		return emptyTable(header)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(';'),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return df, fmt.Errorf("parse table: %w", df.Err)
	}

	tags := make([]string, df.Nrow())
	for i := range tags {
		tags[i] = dept
	}
	df = df.Mutate(series.New(tags, series.String, domain.ColDepartement))
	if df.Err != nil {
		return df, fmt.Errorf("tag departement: %w", df.Err)
	}

	df = df.Select(domain.SourceColumns)
	if df.Err != nil {
		return df, fmt.Errorf("select columns: %w", df.Err)
	}
	return df, nil
}

// headerOnly reports whether data holds a header line and no data rows.
func headerOnly(data []byte) ([]string, bool) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, false
	}
	if _, err := cr.Read(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return header, true
}

func emptyTable(header []string) (dataframe.DataFrame, error) {
	cols := make([]series.Series, 0, len(domain.SourceColumns))
	for _, name := range domain.SourceColumns {
		if name != domain.ColDepartement && !slices.Contains(header, name) {
			return dataframe.DataFrame{}, fmt.Errorf("select columns: missing column %q", name)
		}
		cols = append(cols, series.New([]string{}, series.String, name))
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("empty table: %w", df.Err)
	}
	return df, nil
}

func toRawRecords(df dataframe.DataFrame) []domain.RawRecord {
	cols := make(map[string][]string, len(domain.SourceColumns))
	for _, name := range domain.SourceColumns {
		cols[name] = df.Col(name).Records()
	}

	n := df.Nrow()
	out := make([]domain.RawRecord, n)
	for i := 0; i < n; i++ {
		out[i] = domain.RawRecord{
			StationID:       cell(cols, domain.ColStationID, i),
			StationName:     cell(cols, domain.ColStationName, i),
			Lat:             cell(cols, domain.ColLat, i),
			Lon:             cell(cols, domain.ColLon, i),
			Altitude:        cell(cols, domain.ColAltitude, i),
			Timestamp:       cell(cols, domain.ColTimestamp, i),
			WindSpeed:       cell(cols, domain.ColWindSpeed, i),
			WindDir:         cell(cols, domain.ColWindDir, i),
			Temperature:     cell(cols, domain.ColTemperature, i),
			DewPoint:        cell(cols, domain.ColDewPoint, i),
			Humidity:        cell(cols, domain.ColHumidity, i),
			PressureSea:     cell(cols, domain.ColPressureSea, i),
			PressureStation: cell(cols, domain.ColPressureStation, i),
			Departement:     cell(cols, domain.ColDepartement, i),
		}
	}
	return out
}

// cell returns the value at row i, mapping gota's NaN marker back to "".
func cell(cols map[string][]string, name string, i int) string {
	v := cols[name][i]
	if v == "NaN" {
		return ""
	}
	return v
}
