package pricing

import (
	"stayfinder/shared/daterange"
	"stayfinder/shared/failure"

	"github.com/shopspring/decimal"
)

type Calculator interface {
	Compute(dateRange daterange.DateRange, nightlyPrice decimal.Decimal) (decimal.Decimal, error)
}

type nightlyCalculator struct{}

func New() Calculator {
	return &nightlyCalculator{}
}

// Compute charges the nightly price for every night in the range.
func (c *nightlyCalculator) Compute(dateRange daterange.DateRange, nightlyPrice decimal.Decimal) (decimal.Decimal, error) {
	if nightlyPrice.IsNegative() {
		return decimal.Zero, failure.BadRequestFromString("nightly price must not be negative") //nolint:wrapcheck
	}

	nights := dateRange.Nights()
	if nights <= 0 {
		return decimal.Zero, failure.InvalidDateRange
	}

	return nightlyPrice.Mul(decimal.NewFromInt(int64(nights))), nil
}
