package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience primitives around one operation.
type Executor struct {
	rateLimiter *RateLimiter
	retry       *Retry
	circuit     *CircuitBreaker
	bulkhead    *Bulkhead
	timeout     *Timeout
	fallback    *FallbackChain
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. Every layer is optional; an empty
// executor just calls the operation.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithExecutorRetry adds retry to the executor.
func WithExecutorRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithExecutorCircuitBreaker adds a circuit breaker to the executor.
func WithExecutorCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuit = cb
	}
}

// WithExecutorBulkhead adds bulkhead admission control to the executor.
// The executor runs in the cooperative domain, so the bulkhead must be
// bound to a cooperative pool; a blocking pool surfaces a ConfigError on
// the first execution.
func WithExecutorBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithExecutorRateLimiter adds rate limiting to the executor.
func WithExecutorRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithExecutorTimeout bounds each attempt's run time.
func WithExecutorTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: d})
	}
}

// WithExecutorFallback adds a fallback chain around everything else.
func WithExecutorFallback(fc *FallbackChain) ExecutorOption {
	return func(e *Executor) {
		e.fallback = fc
	}
}

// Execute runs op through the configured layers. From the outermost
// layer in: fallback, rate limiter, retry, circuit breaker, bulkhead,
// timeout. Each retry attempt therefore re-asks the health gate
// ("should I even try?") and then admission control ("can I even
// start?"), and a permit is never held across a backoff sleep.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.ExecuteContext(ctx, inner)
		}
	}

	if e.circuit != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuit.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.ExecuteContext(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	if e.fallback != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.fallback.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
