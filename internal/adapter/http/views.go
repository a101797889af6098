package http

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"slices"

	"github.com/couchcryptid/meteo-etl/internal/dashboard"
	"github.com/couchcryptid/meteo-etl/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"has": func(list []string, v string) bool { return slices.Contains(list, v) },
}

// pageData is the dashboard template model.
type pageData struct {
	dashboard.Page
	Variables []domain.Variable
}

func loadTemplates(fsys fs.FS, dir string) (*template.Template, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	return template.New("dashboard.html").Funcs(funcs).ParseFS(sub, "*.html")
}

func renderPage(tmpl *template.Template, w io.Writer, page dashboard.Page) error {
	return tmpl.ExecuteTemplate(w, "dashboard.html", pageData{Page: page, Variables: domain.Variables})
}
