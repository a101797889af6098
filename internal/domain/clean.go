package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the Go layout of the compact AAAAMMJJHH column.
const TimestampLayout = "2006010215"

// ErrInvalidTimestamp marks rows whose AAAAMMJJHH value cannot be parsed.
// Callers drop those rows.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// CleanRecord projects a raw archive row onto the cleaned schema: it parses
// the timestamp, converts temperature and dew point from tenths of a degree,
// and derives hour, year and month. Returns ErrInvalidTimestamp (wrapped)
// when the row must be dropped.
func CleanRecord(raw RawRecord) (Record, error) {
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return Record{}, err
	}

	return Record{
		StationID:       strings.TrimSpace(raw.StationID),
		StationName:     strings.TrimSpace(raw.StationName),
		Lat:             parseOptionalFloat(raw.Lat),
		Lon:             parseOptionalFloat(raw.Lon),
		Altitude:        parseOptionalFloat(raw.Altitude),
		Datetime:        ts,
		WindSpeed:       parseOptionalFloat(raw.WindSpeed),
		WindDir:         parseOptionalFloat(raw.WindDir),
		Temperature:     tenthsToUnit(parseOptionalFloat(raw.Temperature)),
		DewPoint:        tenthsToUnit(parseOptionalFloat(raw.DewPoint)),
		Humidity:        parseOptionalFloat(raw.Humidity),
		PressureSea:     parseOptionalFloat(raw.PressureSea),
		PressureStation: parseOptionalFloat(raw.PressureStation),
		Departement:     raw.Departement,
		Hour:            ts.Hour(),
		Year:            ts.Year(),
		Month:           int(ts.Month()),
	}, nil
}

// ParseTimestamp parses an AAAAMMJJHH value as a UTC time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Integer-typed columns sometimes come back as "1905060112.0".
	s = strings.TrimSuffix(s, ".0")
	if len(s) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	ts, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return ts, nil
}

// parseOptionalFloat parses a numeric cell, accepting a decimal comma.
// Returns nil for empty, NaN, infinite or unparseable cells.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func tenthsToUnit(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v / 10
	return &out
}
