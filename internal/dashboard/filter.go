package dashboard

import (
	"time"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// DateLayout is the wire format of the start and end bounds.
const DateLayout = "2006-01-02"

// FilterState is the user's selection. A nil slice or nil date means the
// control was left at its default; a non-nil empty slice selects nothing.
type FilterState struct {
	Departements []string
	Stations     []string
	Start        *time.Time
	End          *time.Time
	Variable     domain.Variable
}

// View is the filtered subset plus the options and values the controls
// should display.
type View struct {
	Records []domain.Record

	DepartementOptions []string
	Departements       []string
	StationOptions     []string
	Stations           []string

	// Start and End are the bounds actually applied; nil when the
	// station-filtered subset has no timestamped rows and no bound was given.
	Start *time.Time
	End   *time.Time

	Variable domain.Variable
}

// Apply narrows records by department, then station, then date. Station
// options depend on the department subset and date defaults on the station
// subset. records is not modified.
func Apply(state FilterState, records []domain.Record) View {
	v := View{Variable: state.Variable}
	if v.Variable == "" {
		v.Variable = domain.VarTemperature
	}

	v.DepartementOptions = distinct(records, func(r domain.Record) string { return r.Departement })
	v.Departements = selection(state.Departements, v.DepartementOptions)
	byDept := keep(records, v.Departements, func(r domain.Record) string { return r.Departement })

	v.StationOptions = distinct(byDept, func(r domain.Record) string { return r.StationName })
	v.Stations = selection(state.Stations, v.StationOptions)
	byStation := keep(byDept, v.Stations, func(r domain.Record) string { return r.StationName })

	lo, hi, ok := dateRange(byStation)
	v.Start, v.End = state.Start, state.End
	if v.Start == nil && ok {
		v.Start = &lo
	}
	if v.End == nil && ok {
		v.End = &hi
	}
	if v.Start != nil {
		d := day(*v.Start)
		v.Start = &d
	}
	if v.End != nil {
		d := day(*v.End)
		v.End = &d
	}

	v.Records = make([]domain.Record, 0, len(byStation))
	for _, r := range byStation {
		if !r.HasTime() {
			continue
		}
		d := day(r.Datetime)
		if v.Start != nil && d.Before(*v.Start) {
			continue
		}
		if v.End != nil && d.After(*v.End) {
			continue
		}
		v.Records = append(v.Records, r)
	}
	return v
}

// ParseDate parses a YYYY-MM-DD bound.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// distinct returns the unique keys in first-seen order.
func distinct(records []domain.Record, key func(domain.Record) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// selection resolves the requested values against the available options.
// nil selects every option; unknown values are ignored.
func selection(requested, options []string) []string {
	if requested == nil {
		return options
	}
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		if _, ok := allowed[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func keep(records []domain.Record, values []string, key func(domain.Record) string) []domain.Record {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if _, ok := set[key(r)]; ok {
			out = append(out, r)
		}
	}
	return out
}

// dateRange returns the first and last day among timestamped records.
func dateRange(records []domain.Record) (lo, hi time.Time, ok bool) {
	for _, r := range records {
		if !r.HasTime() {
			continue
		}
		d := day(r.Datetime)
		if !ok || d.Before(lo) {
			lo = d
		}
		if !ok || d.After(hi) {
			hi = d
		}
		ok = true
	}
	return lo, hi, ok
}
