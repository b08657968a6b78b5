package dto_test

import (
	"stayfinder/shared/dto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilter_GetWhereClause(t *testing.T) {
	checkOut := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "eq with table",
			filter:    dto.Filter{Field: "status", Operator: dto.FilterOperatorEq, Value: "pending", Table: "bookings"},
			wantWhere: "bookings.status = :status",
			wantArgs:  map[string]any{"status": "pending"},
		},
		{
			name:      "strict less with arg name",
			filter:    dto.Filter{Field: "check_in", Operator: dto.FilterOperatorLess, Value: checkOut, ArgName: "range_end"},
			wantWhere: "check_in < :range_end",
			wantArgs:  map[string]any{"range_end": checkOut},
		},
		{
			name:      "strict greater",
			filter:    dto.Filter{Field: "check_out", Operator: dto.FilterOperatorGreater, Value: checkOut},
			wantWhere: "check_out > :check_out",
			wantArgs:  map[string]any{"check_out": checkOut},
		},
		{
			name:      "in with slice",
			filter:    dto.Filter{Field: "id", Operator: dto.FilterOperatorIn, Value: []string{"a", "b"}},
			wantWhere: "id IN (:id_0, :id_1)",
			wantArgs:  map[string]any{"id_0": "a", "id_1": "b"},
		},
		{
			name:      "in with empty slice matches nothing",
			filter:    dto.Filter{Field: "id", Operator: dto.FilterOperatorIn, Value: []string{}},
			wantWhere: "FALSE",
			wantArgs:  map[string]any{},
		},
		{
			name:      "like escapes wildcards",
			filter:    dto.Filter{Field: "title", Operator: dto.FilterOperatorLike, Value: "100%_off"},
			wantWhere: "LOWER(title) LIKE LOWER(:title)",
			wantArgs:  map[string]any{"title": `%100\%\_off%`},
		},
		{
			name:      "unknown operator renders nothing",
			filter:    dto.Filter{Field: "title", Operator: "between", Value: "x"},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
		{
			name: "plain query keeps its args",
			filter: dto.Filter{
				Operator: dto.FilterPlainQuery,
				Value:    "NOT EXISTS (SELECT 1 FROM bookings WHERE check_in < :q_end)",
				Args:     map[string]any{"q_end": checkOut},
			},
			wantWhere: "(NOT EXISTS (SELECT 1 FROM bookings WHERE check_in < :q_end))",
			wantArgs:  map[string]any{"q_end": checkOut},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_DefaultsToAnd(t *testing.T) {
	group := dto.FilterGroup{
		Filters: []any{
			dto.Filter{Field: "listing_id", Operator: dto.FilterOperatorEq, Value: "l-1"},
			dto.Filter{Field: "status", Operator: dto.FilterOperatorNotEq, Value: "cancelled"},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(listing_id = :listing_id AND status != :status)", where)
	assert.Equal(t, "l-1", args["listing_id"])
	assert.Equal(t, "cancelled", args["status"])
}

func TestFilterGroup_Nested(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "host_id", Operator: dto.FilterOperatorEq, Value: "h-1"},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "title", Operator: dto.FilterOperatorLike, Value: "loft", ArgName: "q_title"},
					dto.Filter{Field: "location", Operator: dto.FilterOperatorLike, Value: "loft", ArgName: "q_location"},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(host_id = :host_id AND (LOWER(title) LIKE LOWER(:q_title) OR LOWER(location) LIKE LOWER(:q_location)))", where)
	assert.Equal(t, "%loft%", args["q_title"])
	assert.Equal(t, "%loft%", args["q_location"])
}

func TestFilterGroup_Empty(t *testing.T) {
	group := dto.FilterGroup{}

	where, args := group.GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}
