package repository

import (
	"context"
	"reflect"
	"slices"
	"stayfinder/internal/domains/booking/model"
	gDto "stayfinder/shared/dto"
	"strings"
	"sync"
	"time"
)

// memoryImpl keeps bookings in process. Writers on the same listing are
// serialized by a per-listing mutex held across the overlap check and the
// insert; store-wide reads and writes go through mu.
type memoryImpl struct {
	mu       sync.RWMutex
	bookings map[string]model.Booking

	locksMu      sync.Mutex
	listingLocks map[string]*sync.Mutex
}

// NewMemory returns an in-process Booking store. Filters support the
// comparison operators used by the booking domain; plain queries never match.
func NewMemory() Booking {
	return &memoryImpl{
		bookings:     map[string]model.Booking{},
		listingLocks: map[string]*sync.Mutex{},
	}
}

func (m *memoryImpl) listingLock(listingID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	lock, ok := m.listingLocks[listingID]
	if !ok {
		lock = &sync.Mutex{}
		m.listingLocks[listingID] = lock
	}

	return lock
}

func (m *memoryImpl) InsertIfAvailable(ctx context.Context, booking model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	lock := m.listingLock(booking.ListingID)
	lock.Lock()
	defer lock.Unlock()

	overlap, err := m.Exist(ctx, OverlapFilter(booking.ListingID, booking.Range()))
	if err != nil {
		return err
	}

	if overlap {
		return ErrOverlap
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bookings[booking.ID] = booking

	return nil
}

func (m *memoryImpl) Get(ctx context.Context, filter gDto.FilterGroup, _ ...string) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err //nolint:wrapcheck
	}

	matches := m.find(filter)
	if len(matches) == 0 {
		return model.Booking{}, nil
	}

	return matches[0], nil
}

func (m *memoryImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	matches := m.find(filter)

	if params.Limit <= 0 {
		return matches, nil
	}

	page := max(params.Page, 1)
	start := (page - 1) * params.Limit

	if start >= len(matches) {
		return []model.Booking{}, nil
	}

	return matches[start:min(start+params.Limit, len(matches))], nil
}

func (m *memoryImpl) Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err //nolint:wrapcheck
	}

	return len(m.find(filter)) > 0, nil
}

func (m *memoryImpl) Count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err //nolint:wrapcheck
	}

	return len(m.find(filter)), nil
}

func (m *memoryImpl) Mutate(ctx context.Context, id string, fn MutateFunc) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err //nolint:wrapcheck
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}

	changed, err := fn(&current)
	if err != nil {
		return model.Booking{}, err
	}

	if changed {
		m.bookings[id] = current
	}

	return current, nil
}

// find returns the matching bookings, newest first.
func (m *memoryImpl) find(filter gDto.FilterGroup) []model.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []model.Booking{}

	for _, booking := range m.bookings {
		if matchGroup(booking, filter) {
			res = append(res, booking)
		}
	}

	slices.SortFunc(res, func(a, b model.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return res
}

func matchGroup(booking model.Booking, group gDto.FilterGroup) bool {
	if len(group.Filters) == 0 {
		return true
	}

	or := group.Operator == gDto.FilterGroupOperatorOr

	for _, f := range group.Filters {
		var ok bool

		switch fill := f.(type) {
		case gDto.Filter:
			ok = matchFilter(booking, fill)
		case gDto.FilterGroup:
			ok = matchGroup(booking, fill)
		default:
			continue
		}

		if or && ok {
			return true
		}

		if !or && !ok {
			return false
		}
	}

	return !or
}

func matchFilter(booking model.Booking, filter gDto.Filter) bool {
	field, ok := fieldValue(booking, filter.Field)
	if !ok {
		return false
	}

	if filter.Operator == gDto.FilterOperatorIn {
		val := reflect.ValueOf(filter.Value)
		if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
			return false
		}

		for idx := range val.Len() {
			if c, ok := compare(field, val.Index(idx).Interface()); ok && c == 0 {
				return true
			}
		}

		return false
	}

	c, ok := compare(field, filter.Value)
	if !ok {
		return filter.Operator == gDto.FilterOperatorNotEq
	}

	switch filter.Operator {
	case gDto.FilterOperatorEq:
		return c == 0
	case gDto.FilterOperatorNotEq:
		return c != 0
	case gDto.FilterOperatorLess:
		return c < 0
	case gDto.FilterOperatorLessEq:
		return c <= 0
	case gDto.FilterOperatorGreater:
		return c > 0
	case gDto.FilterOperatorGreaterEq:
		return c >= 0
	default:
		return false
	}
}

func fieldValue(booking model.Booking, field string) (any, bool) {
	switch field {
	case model.FieldID:
		return booking.ID, true
	case model.FieldListingID:
		return booking.ListingID, true
	case model.FieldGuestID:
		return booking.GuestID, true
	case model.FieldHostID:
		return booking.HostID, true
	case model.FieldStatus:
		return string(booking.Status), true
	case model.FieldCheckIn:
		return booking.CheckIn, true
	case model.FieldCheckOut:
		return booking.CheckOut, true
	case model.FieldCancelRequested:
		return booking.CancelRequested, true
	case model.FieldCancelApprovalStatus:
		return string(booking.CancelApprovalStatus), true
	default:
		return nil, false
	}
}

// compare orders a stored field against a filter value. ok is false when the
// two are not comparable.
func compare(field, value any) (res int, ok bool) {
	switch f := field.(type) {
	case time.Time:
		v, ok := value.(time.Time)
		if !ok {
			return 0, false
		}

		return f.Compare(v), true
	case bool:
		v, ok := value.(bool)
		if !ok {
			return 0, false
		}

		if f == v {
			return 0, true
		}

		return 1, true
	case string:
		v := reflect.ValueOf(value)
		if v.Kind() != reflect.String {
			return 0, false
		}

		return strings.Compare(f, v.String()), true
	default:
		return 0, false
	}
}
