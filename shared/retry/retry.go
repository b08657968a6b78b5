// Package retry re-runs idempotent reads once when the storage layer fails.
// Writes must never go through here.
package retry

import (
	"context"
	"errors"
	"stayfinder/shared/failure"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

const (
	readAttempts = 2
	readWait     = 50 * time.Millisecond
)

// Read runs op, retrying it once on a storage error. Domain failures and
// context errors are returned immediately.
func Read[T any](ctx context.Context, op func() (T, error)) (T, error) {
	attempt := 0

	return backoff.Retry(ctx, func() (T, error) { //nolint:wrapcheck
		attempt++

		res, err := op()
		if err == nil {
			return res, nil
		}

		if isPermanent(err) {
			return res, backoff.Permanent(err)
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("read failed")

		return res, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(readWait)),
		backoff.WithMaxTries(readAttempts),
	)
}

func isPermanent(err error) bool {
	var fail *failure.Failure

	return errors.As(err, &fail) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
