package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"reflect"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/meteo-etl/internal/dashboard"
	"github.com/couchcryptid/meteo-etl/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their query parameter name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// viewQuery holds the dashboard filter parameters.
type viewQuery struct {
	Departements []string `query:"departement" validate:"dive,max=8"`
	Stations     []string `query:"station" validate:"dive,max=128"`
	Start        string   `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End          string   `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Variable     string   `query:"variable" validate:"omitempty,oneof=temperature wind_speed humidity"`
}

// parseViewQuery reads the filter parameters. A repeatable parameter that
// is absent selects everything; when present, empty values are dropped, so
// a lone empty value selects nothing.
func parseViewQuery(q url.Values) (dashboard.FilterState, error) {
	vq := viewQuery{
		Departements: multi(q, "departement"),
		Stations:     multi(q, "station"),
		Start:        q.Get("start"),
		End:          q.Get("end"),
		Variable:     q.Get("variable"),
	}
	if err := validate.Struct(vq); err != nil {
		return dashboard.FilterState{}, err
	}

	state := dashboard.FilterState{
		Departements: vq.Departements,
		Stations:     vq.Stations,
		Variable:     domain.VarTemperature,
	}
	if vq.Variable != "" {
		v, err := domain.ParseVariable(vq.Variable)
		if err != nil {
			return dashboard.FilterState{}, err
		}
		state.Variable = v
	}
	if vq.Start != "" {
		t, err := dashboard.ParseDate(vq.Start)
		if err != nil {
			return dashboard.FilterState{}, err
		}
		state.Start = &t
	}
	if vq.End != "" {
		t, err := dashboard.ParseDate(vq.End)
		if err != nil {
			return dashboard.FilterState{}, err
		}
		state.End = &t
	}
	return state, nil
}

func multi(q url.Values, key string) []string {
	vals, ok := q[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// render validates the request and builds the page, writing an error
// response itself when it returns false.
func (s *Server) render(w http.ResponseWriter, r *http.Request, endpoint string) (dashboard.Page, bool) {
	s.metrics.DashboardRequests.WithLabelValues(endpoint).Inc()

	if err := s.dataset.CheckReadiness(r.Context()); err != nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return dashboard.Page{}, false
	}

	state, err := parseViewQuery(r.URL.Query())
	if err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = "invalid parameter " + verrs[0].Field()
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return dashboard.Page{}, false
	}

	page := dashboard.Render(state, s.dataset.Records(), s.mapOpts)
	s.metrics.FilteredRows.Observe(float64(page.RowCount))
	return page, true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	page, ok := s.render(w, r, "view")
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, page)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.render(w, r, "page")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := renderPage(s.tmpl, &buf, page); err != nil {
		s.logger.Error("render dashboard", "error", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
