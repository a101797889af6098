package dashboard

import (
	"time"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// Filters echoes the applied selection and the options for each control.
type Filters struct {
	DepartementOptions []string        `json:"departement_options"`
	Departements       []string        `json:"departements"`
	StationOptions     []string        `json:"station_options"`
	Stations           []string        `json:"stations"`
	Start              string          `json:"start,omitempty"`
	End                string          `json:"end,omitempty"`
	Variable           domain.Variable `json:"variable"`
}

// Page is everything the dashboard shows for one selection.
type Page struct {
	Filters  Filters `json:"filters"`
	RowCount int     `json:"row_count"`
	Map      Figure  `json:"map"`
	Hourly   Figure  `json:"hourly"`
	Stations Figure  `json:"stations"`
}

// Render applies state to records and builds the three charts.
func Render(state FilterState, records []domain.Record, opts MapOptions) Page {
	v := Apply(state, records)
	return Page{
		Filters: Filters{
			DepartementOptions: v.DepartementOptions,
			Departements:       v.Departements,
			StationOptions:     v.StationOptions,
			Stations:           v.Stations,
			Start:              formatDate(v.Start),
			End:                formatDate(v.End),
			Variable:           v.Variable,
		},
		RowCount: len(v.Records),
		Map:      MapFigure(v.Records, v.Variable, opts),
		Hourly:   HourlyBar(v.Records, v.Variable),
		Stations: StationBar(v.Records, v.Variable),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
