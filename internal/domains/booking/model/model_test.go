package model_test

import (
	"testing"
	"time"

	"stayfinder/internal/domains/booking/model"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from   model.Status
		to     model.Status
		expect bool
	}{
		{model.StatusPending, model.StatusConfirmed, true},
		{model.StatusConfirmed, model.StatusCompleted, true},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusConfirmed, model.StatusPending, false},
		{model.StatusCompleted, model.StatusConfirmed, false},
		{model.StatusCancelled, model.StatusConfirmed, false},
		{model.StatusPending, model.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, model.StatusCancelled.Terminal())
	assert.True(t, model.StatusCompleted.Terminal())
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusConfirmed.Terminal())
	assert.False(t, model.Status("archived").Valid())
}

func TestBooking_Range(t *testing.T) {
	b := model.Booking{
		CheckIn:  time.Date(2025, 7, 1, 15, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 7, 3, 11, 0, 0, 0, time.UTC),
	}

	r := b.Range()

	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), r.CheckIn)
	assert.Equal(t, 2, r.Nights())
}

func TestBooking_Parties(t *testing.T) {
	b := model.Booking{GuestID: "guest-1", HostID: "host-1"}

	assert.True(t, b.IsGuest("guest-1"))
	assert.False(t, b.IsGuest("host-1"))
	assert.True(t, b.IsHost("host-1"))
	assert.False(t, b.IsHost(""))
	assert.False(t, model.Booking{}.IsGuest(""))
}
