package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog maps department code -> period label -> archive URL.
type Catalog map[string]map[string]string

// ArchiveRef identifies one downloadable archive.
type ArchiveRef struct {
	Departement string
	Period      string
	URL         string
}

// Filename returns the deterministic local filename of the archive.
func (a ArchiveRef) Filename() string {
	return ArchiveFilename(a.Departement, a.Period)
}

// DefaultCatalog lists the archives fetched by the download command.
var DefaultCatalog = Catalog{
	"01": {
		"1890-1899": "https://www.data.gouv.fr/api/1/datasets/r/c66dc0d5-b4ac-4801-9115-5f7f95785d79",
		"1900-1909": "https://www.data.gouv.fr/api/1/datasets/r/16bd3e0e-33dd-4389-83a9-dd26114f84f7",
	},
	"13": {
		"1890-1899": "https://www.data.gouv.fr/api/1/datasets/r/fc252327-35f9-4d6e-aaf3-9617d414ad28",
		"1900-1909": "https://www.data.gouv.fr/api/1/datasets/r/c7a0f9c8-a2ed-49fb-b6a1-8153338c629d",
	},
	"75": {
		"1890-1899": "https://www.data.gouv.fr/api/1/datasets/r/b1d5a728-70f9-4fbb-8302-2e753c1025d0",
		"1900-1909": "https://www.data.gouv.fr/api/1/datasets/r/f4274981-d774-4c3d-9a45-153282ecb50b",
	},
}

// Entries flattens the catalog, sorted by department then period.
func (c Catalog) Entries() []ArchiveRef {
	depts := make([]string, 0, len(c))
	for d := range c {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	var out []ArchiveRef
	for _, d := range depts {
		periods := make([]string, 0, len(c[d]))
		for p := range c[d] {
			periods = append(periods, p)
		}
		sort.Strings(periods)
		for _, p := range periods {
			out = append(out, ArchiveRef{Departement: d, Period: p, URL: c[d][p]})
		}
	}
	return out
}

// ArchiveFilename builds "HOR_departement_<dept>_periode_<period>.csv.gz".
func ArchiveFilename(dept, period string) string {
	return fmt.Sprintf("HOR_departement_%s_periode_%s.csv.gz", dept, period)
}

// DepartmentFromFilename returns the third "_"-separated token of the base
// filename, e.g. "HOR_departement_13_periode_1890-1899.csv.gz" -> "13".
func DepartmentFromFilename(name string) (string, error) {
	base := filepath.Base(name)
	parts := strings.Split(base, "_")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("no department token in filename %q", base)
	}
	return parts[2], nil
}
