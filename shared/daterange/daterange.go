// Package daterange provides the half-open [check-in, check-out) interval used
// for stays. Values are normalized to midnight UTC of their calendar date, so
// two ranges compare by day regardless of the time-of-day they were built from.
package daterange

import (
	"fmt"
	"math"
	"stayfinder/shared/constant"
	"stayfinder/shared/failure"
	"time"
)

const hoursPerDay = 24

type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Normalize drops the time-of-day, keeping the calendar date in t's own location.
func Normalize(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	start := Normalize(checkIn)
	end := Normalize(checkOut)

	if !end.After(start) {
		return DateRange{}, failure.InvalidDateRange
	}

	return DateRange{CheckIn: start, CheckOut: end}, nil
}

// Parse builds a range from two YYYY-MM-DD dates.
func Parse(checkIn, checkOut string) (DateRange, error) {
	start, err := time.Parse(constant.DateOnlyFormat, checkIn)
	if err != nil {
		return DateRange{}, failure.BadRequestFromString(fmt.Sprintf("invalid check-in date %q, expected YYYY-MM-DD", checkIn)) //nolint:wrapcheck
	}

	end, err := time.Parse(constant.DateOnlyFormat, checkOut)
	if err != nil {
		return DateRange{}, failure.BadRequestFromString(fmt.Sprintf("invalid check-out date %q, expected YYYY-MM-DD", checkOut)) //nolint:wrapcheck
	}

	return New(start, end)
}

// Overlaps reports whether the two ranges share at least one night.
// Adjacent ranges, where one checks out on the day the other checks in, do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

func (r DateRange) Nights() int {
	return int(math.Ceil(r.CheckOut.Sub(r.CheckIn).Hours() / hoursPerDay))
}

func (r DateRange) Contains(day time.Time) bool {
	d := Normalize(day)

	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

func (r DateRange) String() string {
	return r.CheckIn.Format(constant.DateOnlyFormat) + "/" + r.CheckOut.Format(constant.DateOnlyFormat)
}
