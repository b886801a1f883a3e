package poller

import (
	"context"
	"time"
)

// RetryPolicy controls how a failed positions fetch is retried. The first
// MaxFastRetries attempts are spaced FastDelay apart; after that the
// scheduler waits CooldownDelay, resets the attempt counter, and starts
// over. Retrying never gives up on its own, only context cancellation
// aborts it.
type RetryPolicy struct {
	MaxFastRetries int
	FastDelay      time.Duration
	CooldownDelay  time.Duration
}

// DefaultRetryPolicy returns the production retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxFastRetries: 5,
		FastDelay:      5 * time.Second,
		CooldownDelay:  10 * time.Minute,
	}
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
