package shared_test

import (
	"context"
	"errors"
	"stayfinder/shared"
	cacheMocks "stayfinder/shared/cache/mocks"
	"stayfinder/shared/constant"
	"stayfinder/shared/dto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestConvertStringToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *bool
	}{
		{name: "empty string returns nil", input: "", expected: nil},
		{name: "true", input: "true", expected: boolPtr(true)},
		{name: "numeric false", input: "0", expected: boolPtr(false)},
		{name: "invalid value returns nil", input: "yes please", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.ConvertStringToBool(tt.input)

			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %v", *result)
				}

				return
			}

			if result == nil || *result != *tt.expected {
				t.Errorf("expected %v, got %v", *tt.expected, result)
			}
		})
	}
}

func TestConvertStringToInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{name: "plain number", input: "4", expected: 4},
		{name: "surrounding spaces", input: " 12 ", expected: 12},
		{name: "not a number", input: "four", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := shared.ConvertStringToInt(tt.input)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "no data", total: 0, limit: 10, expected: 1},
		{name: "exact pages", total: 20, limit: 10, expected: 2},
		{name: "partial last page", total: 21, limit: 10, expected: 3},
		{name: "no limit", total: 5, limit: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := shared.CalculateTotalPage(tt.total, tt.limit); result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type updateListing struct {
		Title     string  `db:"title"`
		MaxGuests *int    `db:"max_guests"`
		Location  string  `db:"location"`
		Ignored   string
	}

	guests := 0
	result := shared.TransformFields(updateListing{Title: "Loft", MaxGuests: &guests, Ignored: "x"}, "host-1")

	assert.Equal(t, "Loft", result["title"])
	assert.Equal(t, &guests, result["max_guests"])
	assert.NotContains(t, result, "location")
	assert.NotContains(t, result, "Ignored")
	assert.Equal(t, "host-1", result[constant.FieldModifiedBy])
	assert.IsType(t, time.Time{}, result[constant.FieldModifiedAt])
}

func TestFilterByID(t *testing.T) {
	filter := shared.FilterByID("123", "id", "bookings")

	if len(filter.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(filter.Filters))
	}

	f, ok := filter.Filters[0].(dto.Filter)
	if !ok {
		t.Fatalf("expected dto.Filter, got %T", filter.Filters[0])
	}

	assert.Equal(t, "id", f.Field)
	assert.Equal(t, "123", f.Value)
	assert.Equal(t, dto.FilterOperatorEq, f.Operator)
	assert.Equal(t, "bookings", f.Table)
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "booking:guest", shared.BuildCacheKey("booking:guest"))
	assert.Equal(t, "booking:guest:user-1", shared.BuildCacheKey("booking:guest", "user-1"))
	assert.Equal(t, "limiter:1.2.3.4:curl", shared.BuildCacheKey("limiter", "1.2.3.4", "curl"))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}
	filter := shared.FilterByID("guest-1", "guest_id", "bookings")

	first := shared.BuildCacheKeyWithQuery("booking:guest:guest-1", params, filter)
	second := shared.BuildCacheKeyWithQuery("booking:guest:guest-1", params, filter)
	otherPage := shared.BuildCacheKeyWithQuery("booking:guest:guest-1", dto.QueryParams{Page: 2, Limit: 10}, filter)
	otherGuest := shared.BuildCacheKeyWithQuery("booking:guest:guest-1", params, shared.FilterByID("guest-2", "guest_id", "bookings"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, otherPage)
	assert.NotEqual(t, first, otherGuest)
	assert.True(t, strings.HasPrefix(first, "booking:guest:guest-1:"))
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Clear(gomock.Any(), "booking:guest:user-1*").Return(nil)
	shared.InvalidateCaches(context.Background(), mockCache, "booking:guest:user-1")

	mockCache.EXPECT().Clear(gomock.Any(), "booking:host:user-2*").Return(errors.New("redis down"))
	shared.InvalidateCaches(context.Background(), mockCache, "booking:host:user-2")
}

func boolPtr(b bool) *bool {
	return &b
}
