// Command genmock writes small synthetic hourly archives with the same file
// naming and column layout as the Météo-France downloads, for local runs of
// clean and dashboard without network access. Rows are run through the
// domain cleaning rules so the printed stats match what clean will produce.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw -days 14 -seed 1
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// Archives carry more columns than the pipeline keeps; a few are included
// so the projection is exercised.
var header = []string{
	domain.ColStationID, domain.ColStationName, domain.ColLat, domain.ColLon, domain.ColAltitude,
	domain.ColTimestamp, "RR1", "QRR1", domain.ColWindSpeed, "QFF", domain.ColWindDir,
	domain.ColTemperature, "QT", domain.ColDewPoint, domain.ColHumidity,
	domain.ColPressureSea, domain.ColPressureStation,
}

type station struct {
	id       string
	name     string
	lat, lon float64
	alt      float64
	baseTemp float64 // °C
}

var stations = map[string][]station{
	"01": {
		{"01014002", "AMBERIEU", 45.976, 5.329, 250, 11},
		{"01089001", "BOURG-EN-BRESSE", 46.205, 5.226, 233, 10.5},
	},
	"13": {
		{"13055001", "MARSEILLE-OBS", 43.305, 5.394, 75, 15},
		{"13047001", "ISTRES", 43.522, 4.924, 24, 14.5},
	},
	"75": {
		{"75114001", "PARIS-MONTSOURIS", 48.822, 2.338, 75, 12},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/raw", "directory to write archives into")
	days := flag.Int("days", 14, "days of hourly observations per station and period")
	seed := flag.Uint64("seed", 1, "random seed")
	badRate := flag.Float64("bad-timestamps", 0.002, "fraction of rows with an unparseable timestamp")
	flag.Parse()

	if *days < 1 {
		flag.Usage()
		return errors.New("-days must be at least 1")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	var all []domain.RawRecord //nolint:prealloc // size depends on the catalog

	for _, ref := range domain.DefaultCatalog.Entries() {
		start, err := periodStart(ref.Period)
		if err != nil {
			return err
		}
		rows := generate(rng, stations[ref.Departement], start, *days, *badRate)

		path := filepath.Join(*out, ref.Filename())
		if err := writeArchive(path, rows); err != nil {
			return fmt.Errorf("writing %s: %w", ref.Filename(), err)
		}
		log.Printf("%s: %d rows", ref.Filename(), len(rows))

		for _, row := range rows {
			all = append(all, toRaw(row, ref.Departement))
		}
	}

	printStats(all)
	return nil
}

// periodStart returns June 1st of the first year of a "1890-1899" label.
func periodStart(period string) (time.Time, error) {
	first, _, ok := strings.Cut(period, "-")
	year, err := strconv.Atoi(first)
	if !ok || err != nil {
		return time.Time{}, fmt.Errorf("bad period %q", period)
	}
	return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC), nil
}

func generate(rng *rand.Rand, sts []station, start time.Time, days int, badRate float64) [][]string {
	var rows [][]string
	for _, st := range sts {
		for h := 0; h < days*24; h++ {
			ts := start.Add(time.Duration(h) * time.Hour)
			rows = append(rows, observation(rng, st, ts, badRate))
		}
	}
	return rows
}

func observation(rng *rand.Rand, st station, ts time.Time, badRate float64) []string {
	diurnal := -4 * math.Cos(2*math.Pi*float64(ts.Hour()-3)/24)
	temp := st.baseTemp + diurnal + rng.NormFloat64()*1.5
	dew := temp - 3 - rng.Float64()*6
	wind := math.Max(0, 3+rng.NormFloat64()*2)

	stamp := ts.Format(domain.TimestampLayout)
	if rng.Float64() < badRate {
		stamp = ts.Format("20060102")
	}

	return []string{
		st.id,
		st.name,
		fmtFloat(st.lat, 3),
		fmtFloat(st.lon, 3),
		fmtFloat(st.alt, 0),
		stamp,
		"", "",
		maybe(rng, fmtFloat(wind, 1), 0.05),
		"1",
		maybe(rng, strconv.Itoa(rng.IntN(36)*10), 0.05),
		maybe(rng, strconv.Itoa(int(math.Round(temp*10))), 0.02),
		"1",
		maybe(rng, strconv.Itoa(int(math.Round(dew*10))), 0.3),
		maybe(rng, strconv.Itoa(40+rng.IntN(60)), 0.1),
		maybe(rng, fmtFloat(1013+rng.NormFloat64()*6, 1), 0.5),
		maybe(rng, fmtFloat(1000+rng.NormFloat64()*6, 1), 0.7),
	}
}

// maybe blanks v with probability p, as the archives do for unmeasured cells.
func maybe(rng *rand.Rand, v string, p float64) string {
	if rng.Float64() < p {
		return ""
	}
	return v
}

func fmtFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func writeArchive(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	cw := csv.NewWriter(gz)
	cw.Comma = ';'
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func toRaw(row []string, dept string) domain.RawRecord {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return domain.RawRecord{
		StationID:       row[idx[domain.ColStationID]],
		StationName:     row[idx[domain.ColStationName]],
		Lat:             row[idx[domain.ColLat]],
		Lon:             row[idx[domain.ColLon]],
		Altitude:        row[idx[domain.ColAltitude]],
		Timestamp:       row[idx[domain.ColTimestamp]],
		WindSpeed:       row[idx[domain.ColWindSpeed]],
		WindDir:         row[idx[domain.ColWindDir]],
		Temperature:     row[idx[domain.ColTemperature]],
		DewPoint:        row[idx[domain.ColDewPoint]],
		Humidity:        row[idx[domain.ColHumidity]],
		PressureSea:     row[idx[domain.ColPressureSea]],
		PressureStation: row[idx[domain.ColPressureStation]],
		Departement:     dept,
	}
}

type deptStats struct {
	rows, dropped int
	minT, maxT    float64
	withT         int
}

func printStats(raw []domain.RawRecord) {
	byDept := map[string]*deptStats{}
	for _, r := range raw {
		s, ok := byDept[r.Departement]
		if !ok {
			s = &deptStats{minT: math.Inf(1), maxT: math.Inf(-1)}
			byDept[r.Departement] = s
		}
		s.rows++
		rec, err := domain.CleanRecord(r)
		if err != nil {
			s.dropped++
			continue
		}
		if rec.Temperature != nil {
			s.withT++
			s.minT = math.Min(s.minT, *rec.Temperature)
			s.maxT = math.Max(s.maxT, *rec.Temperature)
		}
	}

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	var total, dropped int
	fmt.Println("\n=== Expected clean output ===")
	for _, d := range depts {
		s := byDept[d]
		total += s.rows
		dropped += s.dropped
		fmt.Printf("departement %s: rows=%d dropped=%d temperature=[%.1f, %.1f] (%d values)\n",
			d, s.rows, s.dropped, s.minT, s.maxT, s.withT)
	}
	fmt.Printf("Total: %d raw, %d cleaned, %d dropped\n", total, total-dropped, dropped)
}
