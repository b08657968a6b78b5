package dto

import (
	"net/http"
	"slices"
	"stayfinder/shared/constant"
	"strconv"
	"strings"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty,min=1"`
	Limit   int    `json:"limit"    validate:"omitempty,min=1"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest reads page, limit, sort_by and sort_dir from the query string.
// Missing or non-positive page and limit fall back to the defaults, and limit
// is capped at constant.MaxValueLimit.
func (q *QueryParams) FromRequest(r *http.Request) {
	query := r.URL.Query()

	q.Page = positiveInt(query.Get(constant.RequestParamPage), constant.DefaultValuePage)
	q.Limit = min(positiveInt(query.Get(constant.RequestParamLimit), constant.DefaultValueLimit), constant.MaxValueLimit)
	q.SortBy = strings.TrimSpace(query.Get(constant.RequestParamSortBy))

	if dir := strings.ToUpper(query.Get(constant.RequestParamSortDir)); dir == SortDirAsc || dir == SortDirDesc {
		q.SortDir = dir
	}
}

// Restrict limits ordering to the allowed columns of table. Anything else,
// including an empty sort_by, falls back to fallback in descending order.
// The result is safe to interpolate into an ORDER BY clause.
func (q QueryParams) Restrict(table, fallback string, allowed ...string) QueryParams {
	column := strings.ToLower(q.SortBy)
	if !slices.Contains(allowed, column) {
		column = fallback
	}

	q.SortBy = table + "." + column

	if q.SortDir != SortDirAsc {
		q.SortDir = SortDirDesc
	}

	return q
}

func (q QueryParams) Offset() int {
	if q.Page <= 1 {
		return 0
	}

	return (q.Page - 1) * q.Limit
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}
