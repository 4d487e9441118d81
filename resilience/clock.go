package resilience

import (
	"context"
	"time"
)

// Time-dependent components take their clock and sleep functions from
// configuration so tests can advance virtual time. These are the real
// implementations used when none are injected.

func defaultClock() time.Time {
	return time.Now()
}

// defaultSleep blocks the calling goroutine. It is the wait primitive of
// the blocking execution domain.
func defaultSleep(d time.Duration) {
	time.Sleep(d)
}

// defaultSleepContext suspends until d elapses or ctx is done, returning
// the context error in the latter case. It is the wait primitive of the
// cooperative execution domain.
func defaultSleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
