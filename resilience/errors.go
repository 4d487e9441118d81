package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker refuses a call,
	// either because it is open or because a half-open probe is already
	// in flight.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrQueueFull is returned by pool acquisition when the wait queue is
	// at its bounded capacity. The caller is never enqueued.
	ErrQueueFull = errors.New("resilience: pool wait queue is full")

	// ErrAcquireTimeout is returned when a queued waiter's timeout elapses
	// before a permit is handed to it.
	ErrAcquireTimeout = errors.New("resilience: pool acquire timed out")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when an operation exceeds its time limit.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// ConfigError reports invalid or conflicting configuration. It is returned
// eagerly at construction or decoration time, never during execution of a
// correctly configured component.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "resilience: invalid configuration: " + e.Detail
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
