package dashboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// SizeMode selects how marker sizes are derived from the variable.
type SizeMode string

const (
	// SizeClip maps missing and negative values to zero.
	SizeClip SizeMode = "clip"
	// SizeAbs maps missing values to zero and uses the magnitude otherwise.
	SizeAbs SizeMode = "abs"
)

const (
	sizeOffset = 0.1
	sizeMax    = 20.0 // px, largest marker diameter
	barColor   = "#636efa"
	mapZoom    = 5
	mapHeight  = 500
)

// Centre of metropolitan France, used when there is nothing to plot.
var franceCentroid = Center{Lat: 46.6, Lon: 2.4}

// MapOptions tunes the map figure.
type MapOptions struct {
	SizeMode       SizeMode
	HoverTimestamp bool
}

// Figure is a Plotly figure serialized as {"data": [...], "layout": {...}}.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace covers the scattermapbox and bar trace attributes used here.
type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name,omitempty"`
	Lat           []float64 `json:"lat,omitempty"`
	Lon           []float64 `json:"lon,omitempty"`
	X             any       `json:"x,omitempty"`
	Y             []float64 `json:"y,omitempty"`
	HoverText     []string  `json:"hovertext,omitempty"`
	CustomData    []string  `json:"customdata,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	Mode          string    `json:"mode,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
}

// Marker styles points and bars. Color is either a single CSS color or one
// value per point (nil for missing).
type Marker struct {
	Color      any       `json:"color,omitempty"`
	Size       []float64 `json:"size,omitempty"`
	SizeMode   string    `json:"sizemode,omitempty"`
	SizeRef    float64   `json:"sizeref,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

// ColorBar labels the continuous color scale.
type ColorBar struct {
	Title Title `json:"title"`
}

// Title is a Plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Axis is a cartesian axis.
type Axis struct {
	Title Title  `json:"title"`
	Type  string `json:"type,omitempty"`
}

// Center is a map centre.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Mapbox configures the base map.
type Mapbox struct {
	Style  string `json:"style"`
	Zoom   int    `json:"zoom"`
	Center Center `json:"center"`
}

// Margin is in pixels.
type Margin struct {
	R int `json:"r"`
	T int `json:"t"`
	L int `json:"l"`
	B int `json:"b"`
}

// Layout holds the figure-level attributes.
type Layout struct {
	Title  *Title  `json:"title,omitempty"`
	XAxis  *Axis   `json:"xaxis,omitempty"`
	YAxis  *Axis   `json:"yaxis,omitempty"`
	Mapbox *Mapbox `json:"mapbox,omitempty"`
	Height int     `json:"height,omitempty"`
	Margin *Margin `json:"margin,omitempty"`
}

// MarkerSize derives the non-negative marker size of one value.
func MarkerSize(v *float64, mode SizeMode) float64 {
	if v == nil || math.IsNaN(*v) {
		return sizeOffset
	}
	if mode == SizeAbs {
		return math.Abs(*v) + sizeOffset
	}
	return math.Max(*v, 0) + sizeOffset
}

// MapFigure plots one point per record with known coordinates, colored and
// sized by the variable.
func MapFigure(records []domain.Record, variable domain.Variable, opts MapOptions) Figure {
	n := len(records)
	lat := make([]float64, 0, n)
	lon := make([]float64, 0, n)
	names := make([]string, 0, n)
	stamps := make([]string, 0, n)
	colors := make([]*float64, 0, n)
	sizes := make([]float64, 0, n)

	for _, r := range records {
		if r.Lat == nil || r.Lon == nil {
			continue
		}
		v := r.Value(variable)
		lat = append(lat, *r.Lat)
		lon = append(lon, *r.Lon)
		names = append(names, r.StationName)
		colors = append(colors, v)
		sizes = append(sizes, MarkerSize(v, opts.SizeMode))
		if opts.HoverTimestamp {
			stamps = append(stamps, r.Datetime.UTC().Format("2006-01-02 15:04:05"))
		}
	}

	hover := fmt.Sprintf("<b>%%{hovertext}</b><br>%s=%%{marker.color}", variable)
	if opts.HoverTimestamp {
		hover += "<br>datetime=%{customdata}"
	}
	hover += "<extra></extra>"

	trace := Trace{
		Type:          "scattermapbox",
		Mode:          "markers",
		Lat:           lat,
		Lon:           lon,
		HoverText:     names,
		HoverTemplate: hover,
		Marker: &Marker{
			Color:      colors,
			Size:       sizes,
			SizeMode:   "area",
			SizeRef:    sizeRef(sizes),
			ColorScale: "Viridis",
			ShowScale:  true,
			ColorBar:   &ColorBar{Title: Title{Text: string(variable)}},
		},
	}
	if opts.HoverTimestamp {
		trace.CustomData = stamps
	}

	return Figure{
		Data: []Trace{trace},
		Layout: Layout{
			Mapbox: &Mapbox{Style: "open-street-map", Zoom: mapZoom, Center: meanCenter(lat, lon)},
			Height: mapHeight,
			Margin: &Margin{},
		},
	}
}

// sizeRef scales the largest marker to sizeMax pixels in area mode.
func sizeRef(sizes []float64) float64 {
	hi := 0.0
	for _, s := range sizes {
		hi = math.Max(hi, s)
	}
	if hi == 0 {
		return 1
	}
	return 2 * hi / (sizeMax * sizeMax)
}

func meanCenter(lat, lon []float64) Center {
	if len(lat) == 0 {
		return franceCentroid
	}
	var sLat, sLon float64
	for i := range lat {
		sLat += lat[i]
		sLon += lon[i]
	}
	n := float64(len(lat))
	return Center{Lat: sLat / n, Lon: sLon / n}
}

// HourlyBar plots the mean of the variable for each hour of day that has at
// least one value, in ascending hour order.
func HourlyBar(records []domain.Record, variable domain.Variable) Figure {
	acc := make(map[int]*mean)
	for _, r := range records {
		addValue(acc, r.Hour, r.Value(variable))
	}
	hours := make([]int, 0, len(acc))
	for h := range acc {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	ys := make([]float64, len(hours))
	for i, h := range hours {
		ys[i] = acc[h].value()
	}
	return barFigure(hours, ys, "Heure", "linear", variable,
		fmt.Sprintf("%s moyen par heure", variable.Label()))
}

// StationBar plots the mean of the variable per station name, sorted by name.
func StationBar(records []domain.Record, variable domain.Variable) Figure {
	acc := make(map[string]*mean)
	for _, r := range records {
		addValue(acc, r.StationName, r.Value(variable))
	}
	names := make([]string, 0, len(acc))
	for n := range acc {
		names = append(names, n)
	}
	sort.Strings(names)

	ys := make([]float64, len(names))
	for i, n := range names {
		ys[i] = acc[n].value()
	}
	return barFigure(names, ys, "Station", "category", variable,
		fmt.Sprintf("%s moyen par station", variable.Label()))
}

func barFigure[K int | string](xs []K, ys []float64, xLabel, xType string, variable domain.Variable, title string) Figure {
	return Figure{
		Data: []Trace{{
			Type:   "bar",
			Name:   string(variable),
			X:      xs,
			Y:      ys,
			Marker: &Marker{Color: barColor},
		}},
		Layout: Layout{
			Title: &Title{Text: title},
			XAxis: &Axis{Title: Title{Text: xLabel}, Type: xType},
			YAxis: &Axis{Title: Title{Text: "Moyenne " + string(variable)}},
		},
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) value() float64 { return m.sum / float64(m.n) }

// addValue accumulates v under key; missing values are skipped and a key is
// only created once it has a value.
func addValue[K comparable](acc map[K]*mean, key K, v *float64) {
	if v == nil || math.IsNaN(*v) {
		return
	}
	m, ok := acc[key]
	if !ok {
		m = &mean{}
		acc[key] = m
	}
	m.sum += *v
	m.n++
}
