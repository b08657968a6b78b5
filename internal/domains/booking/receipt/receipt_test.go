package receipt_test

import (
	"bytes"
	"testing"
	"time"

	"stayfinder/config"
	"stayfinder/internal/domains/booking/model"
	"stayfinder/internal/domains/booking/receipt"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	renderer := receipt.New(&config.Config{})

	out, err := renderer.Render(receipt.Data{
		Booking: model.Booking{
			ID:         "3f0c9a5e-booking",
			CheckIn:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:   time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
			Guests:     2,
			TotalPrice: decimal.NewFromInt(100),
			Status:     model.StatusConfirmed,
		},
		ListingTitle:    "Café by the lake",
		ListingLocation: "Annecy",
		NightlyPrice:    decimal.NewFromInt(50),
		IssuedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}
