// Command validate checks a cleaned dataset against the raw archives it was
// produced from. It re-reads the archives, re-applies the cleaning rules and
// compares row accounting, department tagging, derived calendar fields and
// unit conversion with what is on disk.
//
// Usage:
//
//	go run ./cmd/validate -raw-dir data/raw -cleaned data/cleaned/meteo_cleaned.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/couchcryptid/meteo-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// maxErrorsPerPhase caps the detail printed for a failing phase.
const maxErrorsPerPhase = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if len(p.errors) < maxErrorsPerPhase {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.total == 0 }

func main() {
	rawDir := flag.String("raw-dir", "data/raw", "directory containing the raw .csv.gz archives")
	cleaned := flag.String("cleaned", "data/cleaned/meteo_cleaned.csv", "path to the cleaned dataset")
	flag.Parse()

	if code := run(*rawDir, *cleaned); code != 0 {
		os.Exit(code)
	}
}

func run(rawDir, cleanedPath string) int {
	fmt.Println("=== Cleaned Dataset Integrity Validation ===")
	fmt.Println()

	reader := archive.NewReader(rawDir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	raw, err := reader.Extract(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw archives: %v\n", err)
		return 1
	}

	cleaned, err := csvstore.ReadFile(cleanedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cleaned dataset: %v\n", err)
		return 1
	}

	expected := make([]domain.Record, 0, len(raw))
	for _, r := range raw {
		if rec, err := domain.CleanRecord(r); err == nil {
			expected = append(expected, rec)
		}
	}

	phases := []*phase{
		validateRowAccounting(raw, expected, cleaned),
		validateDepartments(expected, cleaned),
		validateDerivedFields(cleaned),
		validateConversion(expected, cleaned),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", p.total)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d expected after cleaning, %d in %s\n",
		len(raw), len(expected), len(cleaned), cleanedPath)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.total > len(p.errors) {
			fmt.Printf("  ... %d more\n", p.total-len(p.errors))
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateRowAccounting(raw []domain.RawRecord, expected, cleaned []domain.Record) *phase {
	p := &phase{name: "Phase 1: Row accounting"}
	dropped := len(raw) - len(expected)
	if len(cleaned) != len(expected) {
		p.errorf("cleaned has %d rows, want %d (%d raw - %d unparseable timestamps)",
			len(cleaned), len(expected), len(raw), dropped)
	}
	return p
}

func validateDepartments(expected, cleaned []domain.Record) *phase {
	p := &phase{name: "Phase 2: Department tagging"}
	want := countBy(expected, func(r domain.Record) string { return r.Departement })
	got := countBy(cleaned, func(r domain.Record) string { return r.Departement })

	keys := make(map[string]struct{})
	for k := range want {
		keys[k] = struct{}{}
	}
	for k := range got {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, d := range sorted {
		if want[d] != got[d] {
			p.errorf("departement %q: %d rows, want %d", d, got[d], want[d])
		}
	}
	return p
}

func validateDerivedFields(cleaned []domain.Record) *phase {
	p := &phase{name: "Phase 3: Datetime and calendar fields"}
	for i, r := range cleaned {
		row := i + 2
		if !r.HasTime() {
			p.errorf("row %d: datetime missing or unparseable", row)
			continue
		}
		if r.Hour != r.Datetime.Hour() || r.Year != r.Datetime.Year() || r.Month != int(r.Datetime.Month()) {
			p.errorf("row %d: hour/year/month = %d/%d/%d, datetime %s",
				row, r.Hour, r.Year, r.Month, r.Datetime.Format(csvstore.DatetimeLayout))
		}
		if r.Departement == "" {
			p.errorf("row %d: empty departement", row)
		}
	}
	return p
}

// validateConversion compares rows pairwise; the pipeline preserves
// archive discovery order and row order within each archive.
func validateConversion(expected, cleaned []domain.Record) *phase {
	p := &phase{name: "Phase 4: Unit conversion and field mapping"}
	n := min(len(expected), len(cleaned))
	for i := 0; i < n; i++ {
		want, got := expected[i], cleaned[i]
		row := i + 2
		if want.StationID != got.StationID || want.StationName != got.StationName {
			p.errorf("row %d: station %s/%s, want %s/%s", row,
				got.StationID, got.StationName, want.StationID, want.StationName)
			continue
		}
		if !want.Datetime.Equal(got.Datetime) {
			p.errorf("row %d: datetime %s, want %s", row, got.Datetime, want.Datetime)
		}
		checkValue(p, row, "temperature", want.Temperature, got.Temperature)
		checkValue(p, row, "dew_point", want.DewPoint, got.DewPoint)
		checkValue(p, row, "wind_speed", want.WindSpeed, got.WindSpeed)
		checkValue(p, row, "humidity", want.Humidity, got.Humidity)
	}
	return p
}

func checkValue(p *phase, row int, name string, want, got *float64) {
	switch {
	case want == nil && got == nil:
	case want == nil || got == nil:
		p.errorf("row %d: %s presence mismatch (got %v, want %v)", row, name, fmtPtr(got), fmtPtr(want))
	case math.Abs(*want-*got) > 1e-9:
		p.errorf("row %d: %s = %g, want %g", row, name, *got, *want)
	}
}

func fmtPtr(v *float64) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("%g", *v)
}

func countBy(records []domain.Record, key func(domain.Record) string) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[key(r)]++
	}
	return out
}
