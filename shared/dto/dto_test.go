package dto_test

import (
	"net/http/httptest"
	"stayfinder/shared/dto"
	"stayfinder/shared/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_FromModel(t *testing.T) {
	var metadata dto.Metadata

	metadata.FromModel(model.Metadata{
		CreatedAt:  time.Date(2024, 8, 1, 9, 30, 0, 0, time.UTC),
		ModifiedAt: time.Date(2024, 8, 2, 9, 30, 0, 0, time.UTC),
		CreatedBy:  "host-1",
		ModifiedBy: "admin-1",
	})

	assert.Equal(t, dto.Metadata{
		CreatedAt:  "2024-08-01T09:30:00Z",
		ModifiedAt: "2024-08-02T09:30:00Z",
		CreatedBy:  "host-1",
		ModifiedBy: "admin-1",
	}, metadata)
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected dto.QueryParams
	}{
		{
			name:     "defaults",
			query:    "",
			expected: dto.QueryParams{Page: 1, Limit: 10},
		},
		{
			name:     "all parameters",
			query:    "page=3&limit=25&sort_by=nightly_price&sort_dir=asc",
			expected: dto.QueryParams{Page: 3, Limit: 25, SortBy: "nightly_price", SortDir: dto.SortDirAsc},
		},
		{
			name:     "limit is capped",
			query:    "limit=5000",
			expected: dto.QueryParams{Page: 1, Limit: 100},
		},
		{
			name:     "invalid numbers fall back",
			query:    "page=-2&limit=abc",
			expected: dto.QueryParams{Page: 1, Limit: 10},
		},
		{
			name:     "unknown direction is dropped",
			query:    "sort_by=title&sort_dir=sideways",
			expected: dto.QueryParams{Page: 1, Limit: 10, SortBy: "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/listings?"+tt.query, nil)

			var params dto.QueryParams
			params.FromRequest(req)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestQueryParams_Restrict(t *testing.T) {
	allowed := []string{"created_at", "nightly_price"}

	tests := []struct {
		name     string
		params   dto.QueryParams
		expected dto.QueryParams
	}{
		{
			name:     "allowed column keeps direction",
			params:   dto.QueryParams{SortBy: "Nightly_Price", SortDir: dto.SortDirAsc},
			expected: dto.QueryParams{SortBy: "listings.nightly_price", SortDir: dto.SortDirAsc},
		},
		{
			name:     "unknown column falls back",
			params:   dto.QueryParams{SortBy: "password; DROP TABLE users"},
			expected: dto.QueryParams{SortBy: "listings.created_at", SortDir: dto.SortDirDesc},
		},
		{
			name:     "empty column falls back",
			params:   dto.QueryParams{Page: 2, Limit: 5},
			expected: dto.QueryParams{Page: 2, Limit: 5, SortBy: "listings.created_at", SortDir: dto.SortDirDesc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.params.Restrict("listings", "created_at", allowed...))
		})
	}
}

func TestQueryParams_Offset(t *testing.T) {
	assert.Equal(t, 0, dto.QueryParams{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, 0, dto.QueryParams{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, dto.QueryParams{Page: 5, Limit: 10}.Offset())
}
