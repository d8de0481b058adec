// Package retry wraps the backoff library into the bounded, fixed-interval
// form the rest of the codebase uses. Page automation failures are almost
// always transient (slow render, late script) so every caller retries a small
// fixed number of times with a flat delay rather than an exponential curve.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Do runs op up to attempts times, sleeping interval between failures.
// It returns the first successful result, or the last error once the
// attempt budget is exhausted or ctx is cancelled.
func Do[T any](ctx context.Context, attempts uint, interval time.Duration, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxTries(attempts),
	)
}

// Permanent marks err as non-retryable so Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
