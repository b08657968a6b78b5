// Package timezone holds the location every timestamp written by the service
// is expressed in. Call Setup once at startup with an IANA name such as
// "Asia/Jakarta"; until then UTC is used.
package timezone

import (
	"fmt"
	"sync/atomic"
	"time"
)

var location atomic.Pointer[time.Location]

func Setup(name string) error {
	if name == "" {
		location.Store(time.UTC)

		return nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		location.Store(time.UTC)

		return fmt.Errorf("unknown timezone %q: %w", name, err)
	}

	location.Store(loc)

	return nil
}

func Location() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}

	return time.UTC
}

func Now() time.Time {
	return time.Now().In(Location())
}

// Today is the current calendar date in the configured location, at midnight UTC.
func Today() time.Time {
	year, month, day := Now().Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
