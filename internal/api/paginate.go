package api

import (
	"net/http"
	"strconv"

	"github.com/shortmark/shortmark/internal/store"
)

// parsePagination reads page and per_page from the query string. Missing,
// malformed or non-positive values fall back to the defaults; per_page is
// capped by the store.
func parsePagination(r *http.Request) (page, perPage int) {
	q := r.URL.Query()
	return queryInt(q.Get("page"), store.DefaultPage), queryInt(q.Get("per_page"), store.DefaultPerPage)
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
