package resilience

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between retry attempts.
type BackoffStrategy int

const (
	// BackoffExponential doubles the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffFixed uses the base delay for every attempt.
	BackoffFixed
	// BackoffLinear grows the delay linearly with the attempt number.
	BackoffLinear
	// BackoffFibonacci scales the base delay by the Fibonacci sequence.
	BackoffFibonacci
)

// String returns the string representation of the strategy.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffExponential:
		return "exponential"
	case BackoffFixed:
		return "fixed"
	case BackoffLinear:
		return "linear"
	case BackoffFibonacci:
		return "fibonacci"
	default:
		return "unknown"
	}
}

// HasStatus is the capability a response type implements so a policy can
// classify it by status code.
type HasStatus interface {
	Status() int
}

// RetryPolicy encodes attempt limits, backoff shape, jitter, and the
// classification rules for which failures are retryable. A policy is
// immutable after construction and safe to share between executors
// without locking.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3. Must be at least 1.
	MaxAttempts int

	// Backoff selects the delay growth strategy.
	// Default: BackoffExponential.
	Backoff BackoffStrategy

	// BaseDelay is the delay unit the strategy scales.
	// Default: 100ms. Zero is a legal no-delay configuration.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay before jitter is applied.
	// Default: 30s. Must not be smaller than BaseDelay.
	MaxDelay time.Duration

	// Jitter scales each capped delay by a uniform factor in [0.75, 1.25]
	// to avoid synchronized retry storms.
	Jitter bool

	// RetryableErrors restricts retries to failures matching one of these
	// errors (via errors.Is). Nil means every failure is retryable.
	RetryableErrors []error

	// RetryableStatuses lists response status codes worth retrying.
	// Nil means responses are never retried based on status.
	RetryableStatuses []int
}

// NewRetryPolicy validates p, fills in defaults for unset fields, and
// returns the effective policy. Negative delays, inverted delay bounds,
// and a negative MaxAttempts are configuration errors.
func NewRetryPolicy(p RetryPolicy) (*RetryPolicy, error) {
	if p.MaxAttempts < 0 {
		return nil, configErrorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return nil, configErrorf("base delay must not be negative, got %v", p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return nil, configErrorf("max delay must not be negative, got %v", p.MaxDelay)
	}

	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay == 0 && p.MaxDelay == 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 30 * time.Second
		if p.BaseDelay > p.MaxDelay {
			p.MaxDelay = p.BaseDelay
		}
	}

	if p.MaxDelay < p.BaseDelay {
		return nil, configErrorf("max delay %v is smaller than base delay %v", p.MaxDelay, p.BaseDelay)
	}

	return &p, nil
}

// CalculateDelay computes the delay before the retry that follows the
// given attempt. Attempts are 1-indexed; non-positive attempts yield zero.
// The raw strategy delay is capped at MaxDelay, then jitter is applied.
func (p *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	// Raw delays are computed in float64 so deep attempts saturate at
	// MaxDelay instead of overflowing the duration.
	var raw float64
	switch p.Backoff {
	case BackoffFixed:
		raw = float64(p.BaseDelay)
	case BackoffLinear:
		raw = float64(p.BaseDelay) * float64(attempt)
	case BackoffExponential:
		raw = float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	case BackoffFibonacci:
		raw = float64(p.BaseDelay) * fibonacci(attempt)
	default:
		raw = float64(p.BaseDelay)
	}

	delay := p.MaxDelay
	if raw < float64(p.MaxDelay) {
		delay = time.Duration(raw)
	}

	if p.Jitter && delay > 0 {
		// Uniform factor in [0.75, 1.25), applied after capping.
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		factor := 0.75 + rand.Float64()/2
		delay = time.Duration(float64(delay) * factor)
	}

	return delay
}

// ShouldRetry reports whether a failed attempt should be retried.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.RetryableErrors == nil {
		return true
	}
	for _, target := range p.RetryableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ShouldRetryResponse reports whether a response should be retried based
// on its status code. Policies without RetryableStatuses never retry
// responses; a nil response carries no status to classify.
func (p *RetryPolicy) ShouldRetryResponse(resp HasStatus, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.RetryableStatuses == nil || resp == nil {
		return false
	}
	status := resp.Status()
	for _, s := range p.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// fibonacci returns the n-th Fibonacci number with fib(1) = fib(2) = 1.
func fibonacci(n int) float64 {
	if n <= 2 {
		return 1
	}
	a, b := 1.0, 1.0
	for i := 3; i <= n; i++ {
		a, b = b, a+b
	}
	return b
}
