package health

import (
	"context"
	"time"
)

// Status is a three-level health verdict. Levels are ordered by
// severity so the worst of several results can be picked with a
// numeric comparison.
type Status int

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = iota
	// StatusDegraded means the component still serves requests but
	// with reduced capacity or elevated latency.
	StatusDegraded
	// StatusUnhealthy means the component cannot serve requests.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

// String returns the lowercase name of the status.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Result is the outcome of one health check.
type Result struct {
	// Status is the verdict.
	Status Status

	// Message is a short human-readable explanation of the verdict.
	Message string

	// Details carries check-specific metadata, such as a circuit
	// breaker's state or a pool's saturation counters.
	Details map[string]any

	// Error holds the underlying failure for unhealthy results.
	Error error

	// Duration is how long the check ran.
	Duration time.Duration

	// Timestamp records when the check completed.
	Timestamp time.Time
}

func newResult(status Status, message string, err error) Result {
	return Result{
		Status:    status,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// Healthy builds a healthy result with the given message.
func Healthy(message string) Result {
	return newResult(StatusHealthy, message, nil)
}

// Degraded builds a degraded result with the given message.
func Degraded(message string) Result {
	return newResult(StatusDegraded, message, nil)
}

// Unhealthy builds an unhealthy result carrying the causing error.
func Unhealthy(message string, err error) Result {
	return newResult(StatusUnhealthy, message, err)
}

// WithDetails returns a copy of the result with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker probes one component and reports its health. Implementations
// must be safe for concurrent use; the aggregator runs them in
// parallel.
type Checker interface {
	// Name identifies the component being checked.
	Name() string

	// Check probes the component. It should honor ctx cancellation
	// and never panic.
	Check(ctx context.Context) Result
}

// CheckerFunc wraps a plain function as a named Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a Checker from fn, reporting under name.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name implements Checker.
func (f *CheckerFunc) Name() string { return f.name }

// Check implements Checker.
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
