package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params are the page/per_page query parameters of a list endpoint.
type Params struct {
	Page    int
	PerPage int
}

// Offset is the SQL OFFSET for p.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Normalize clamps page to >= 1 and perPage to [1, MaxPerPage], substituting
// DefaultPerPage for non-positive values.
func Normalize(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// FromRequest reads page and per_page from the query string. Unparseable
// values fall back to defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return Normalize(page, perPage)
}
