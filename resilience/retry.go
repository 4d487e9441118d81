package resilience

import (
	"context"
	"time"
)

// RetryConfig configures a Retry executor.
type RetryConfig struct {
	// Policy holds the attempt limits and backoff shape.
	// Default: NewRetryPolicy(RetryPolicy{}) defaults.
	Policy *RetryPolicy

	// OnRetry is observed before each retry with the 1-indexed attempt
	// that just failed and its error. A panic raised by the callback is
	// recovered and discarded; observer failures never replace the real
	// retry flow.
	OnRetry func(attempt int, err error)

	// RetryIf, when set, replaces the policy's error classification.
	RetryIf func(err error) bool

	// Sink receives retry diagnostic events.
	Sink Sink

	// Clock, Sleep, and SleepContext are the injectable time functions.
	// Sleep serves Execute (blocking domain); SleepContext serves
	// ExecuteContext (cooperative domain). Defaults: time.Now,
	// time.Sleep, and a timer/ctx select.
	Clock        func() time.Time
	Sleep        func(d time.Duration)
	SleepContext func(ctx context.Context, d time.Duration) error
}

// Retry drives a bounded retry loop around an operation. An executor is
// created once and reused; all per-attempt state is local to each
// Execute/ExecuteContext call, so a single instance is safe for
// concurrent use.
type Retry struct {
	policy   *RetryPolicy
	onRetry  func(attempt int, err error)
	retryIf  func(err error) bool
	sink     Sink
	clock    func() time.Time
	sleep    func(d time.Duration)
	sleepCtx func(ctx context.Context, d time.Duration) error
}

// NewRetry creates a retry executor. The zero config is usable: it
// retries any failure up to the default policy's attempt budget.
func NewRetry(config RetryConfig) *Retry {
	policy := config.Policy
	if policy == nil {
		policy, _ = NewRetryPolicy(RetryPolicy{})
	}

	r := &Retry{
		policy:   policy,
		onRetry:  config.OnRetry,
		retryIf:  config.RetryIf,
		sink:     orNopSink(config.Sink),
		clock:    config.Clock,
		sleep:    config.Sleep,
		sleepCtx: config.SleepContext,
	}
	if r.clock == nil {
		r.clock = defaultClock
	}
	if r.sleep == nil {
		r.sleep = defaultSleep
	}
	if r.sleepCtx == nil {
		r.sleepCtx = defaultSleepContext
	}
	return r
}

// Policy returns the executor's effective policy.
func (r *Retry) Policy() *RetryPolicy {
	return r.policy
}

// Execute runs op in the blocking domain, sleeping on the calling
// goroutine between attempts. On success the result is returned
// immediately; a non-retryable failure propagates without delay; an
// exhausted budget propagates the last real failure unchanged.
func (r *Retry) Execute(op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		if !r.retryable(err, attempt) {
			return err
		}

		delay := r.policy.CalculateDelay(attempt)
		r.notifyRetry(context.Background(), attempt, err, delay)
		r.sleep(delay)
	}
}

// ExecuteContext runs op in the cooperative domain, suspending only the
// calling goroutine between attempts and aborting the wait when ctx is
// done. The classification rules are identical to Execute.
func (r *Retry) ExecuteContext(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if !r.retryable(err, attempt) {
			return err
		}

		delay := r.policy.CalculateDelay(attempt)
		r.notifyRetry(ctx, attempt, err, delay)
		if serr := r.sleepCtx(ctx, delay); serr != nil {
			return serr
		}
	}
}

// Wrap returns op decorated with this executor's retry behavior.
func (r *Retry) Wrap(op func() error) func() error {
	return func() error {
		return r.Execute(op)
	}
}

// WrapContext returns op decorated with this executor's retry behavior.
func (r *Retry) WrapContext(op func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return r.ExecuteContext(ctx, op)
	}
}

func (r *Retry) retryable(err error, attempt int) bool {
	if r.retryIf != nil {
		return attempt < r.policy.MaxAttempts && r.retryIf(err)
	}
	return r.policy.ShouldRetry(err, attempt)
}

func (r *Retry) notifyRetry(ctx context.Context, attempt int, err error, delay time.Duration) {
	r.sink.Event(ctx, "retry.attempt",
		F("attempt", attempt),
		F("max_attempts", r.policy.MaxAttempts),
		F("delay_ms", float64(delay)/float64(time.Millisecond)),
		F("error", err.Error()),
	)

	if r.onRetry == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.sink.Event(ctx, "retry.observer_panic", F("panic", rec))
		}
	}()
	r.onRetry(attempt, err)
}
