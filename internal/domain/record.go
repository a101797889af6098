package domain

import (
	"fmt"
	"time"
)

// Source column names as they appear in the archives.
const (
	ColStationID       = "NUM_POSTE"
	ColStationName     = "NOM_USUEL"
	ColLat             = "LAT"
	ColLon             = "LON"
	ColAltitude        = "ALTI"
	ColTimestamp       = "AAAAMMJJHH"
	ColWindSpeed       = "FF"
	ColWindDir         = "DD"
	ColTemperature     = "T"
	ColDewPoint        = "TD"
	ColHumidity        = "U"
	ColPressureSea     = "PMER"
	ColPressureStation = "PSTAT"
	ColDepartement     = "departement"
)

// SourceColumns is the allow-list projected out of every archive, in order.
var SourceColumns = []string{
	ColStationID,
	ColStationName,
	ColLat,
	ColLon,
	ColAltitude,
	ColTimestamp,
	ColWindSpeed,
	ColWindDir,
	ColTemperature,
	ColDewPoint,
	ColHumidity,
	ColPressureSea,
	ColPressureStation,
	ColDepartement,
}

// CleanedColumns is the header of the cleaned dataset, in order.
var CleanedColumns = []string{
	"station_id",
	"station_name",
	"lat",
	"lon",
	"altitude",
	"datetime",
	"wind_speed",
	"wind_dir",
	"temperature",
	"dew_point",
	"humidity",
	"pressure_sea",
	"pressure_station",
	"departement",
	"hour",
	"year",
	"month",
}

// RawRecord is one archive row restricted to SourceColumns. Values are kept
// as the text found in the file; missing cells are empty strings.
type RawRecord struct {
	StationID       string
	StationName     string
	Lat             string
	Lon             string
	Altitude        string
	Timestamp       string // AAAAMMJJHH
	WindSpeed       string
	WindDir         string
	Temperature     string // tenths of °C
	DewPoint        string // tenths of °C
	Humidity        string
	PressureSea     string
	PressureStation string
	Departement     string
}

// Record is a cleaned observation. Numeric fields are nil when the source
// cell was missing or unparseable. Datetime is the zero time only for rows
// read back from a cleaned file whose datetime could not be parsed.
type Record struct {
	StationID       string    `json:"station_id"`
	StationName     string    `json:"station_name"`
	Lat             *float64  `json:"lat"`
	Lon             *float64  `json:"lon"`
	Altitude        *float64  `json:"altitude"`
	Datetime        time.Time `json:"datetime"`
	WindSpeed       *float64  `json:"wind_speed"`
	WindDir         *float64  `json:"wind_dir"`
	Temperature     *float64  `json:"temperature"`
	DewPoint        *float64  `json:"dew_point"`
	Humidity        *float64  `json:"humidity"`
	PressureSea     *float64  `json:"pressure_sea"`
	PressureStation *float64  `json:"pressure_station"`
	Departement     string    `json:"departement"`
	Hour            int       `json:"hour"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
}

// HasTime reports whether the record carries a parsed timestamp.
func (r Record) HasTime() bool {
	return !r.Datetime.IsZero()
}

// Variable is one of the measured quantities selectable on the dashboard.
type Variable string

const (
	VarTemperature Variable = "temperature"
	VarWindSpeed   Variable = "wind_speed"
	VarHumidity    Variable = "humidity"
)

// Variables lists the selectable variables in display order.
var Variables = []Variable{VarTemperature, VarWindSpeed, VarHumidity}

// ParseVariable validates a variable name.
func ParseVariable(s string) (Variable, error) {
	for _, v := range Variables {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variable %q", s)
}

// Label returns the variable name with its first letter upper-cased,
// e.g. "wind_speed" -> "Wind_speed".
func (v Variable) Label() string {
	if v == "" {
		return ""
	}
	b := []byte(v)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Value returns the record's measurement for v, or nil when missing.
func (r Record) Value(v Variable) *float64 {
	switch v {
	case VarTemperature:
		return r.Temperature
	case VarWindSpeed:
		return r.WindSpeed
	case VarHumidity:
		return r.Humidity
	default:
		return nil
	}
}
