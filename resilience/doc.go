// Package resilience provides fault-tolerance primitives for calling
// unreliable operations: retry with backoff, circuit breaking, and
// bulkhead admission control, plus timeout, rate-limit, and fallback
// wrappers and an Executor that composes them.
//
// # Execution domains
//
// Two scheduling models coexist and are never bridged implicitly. The
// blocking domain parks OS threads: Retry.Execute sleeps on the calling
// thread and SyncPool.Acquire blocks it. The cooperative domain suspends
// only the calling goroutine and honors context cancellation:
// Retry.ExecuteContext and AsyncPool.Acquire. A Bulkhead's entry points
// are typed to the matching pool; calling Execute against a cooperative
// pool (or ExecuteContext against a blocking one) is a ConfigError, not
// a silent fallback.
//
// # Composition
//
// Each primitive is independently usable. Wrapped together they form
// nested decorators around a unit of work:
//
//	pool, _ := resilience.NewAsyncPool(resilience.PoolConfig{MaxConcurrent: 5, MaxQueue: 10})
//	bh, _ := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "payments", Pool: pool})
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 3,
//	    RecoveryTimeout:  time.Minute,
//	})
//
//	policy, _ := resilience.NewRetryPolicy(resilience.RetryPolicy{
//	    MaxAttempts: 3,
//	    Backoff:     resilience.BackoffExponential,
//	    BaseDelay:   100 * time.Millisecond,
//	    Jitter:      true,
//	})
//	retry := resilience.NewRetry(resilience.RetryConfig{Policy: policy})
//
//	exec := resilience.NewExecutor(
//	    resilience.WithExecutorRetry(retry),
//	    resilience.WithExecutorCircuitBreaker(cb),
//	    resilience.WithExecutorBulkhead(bh),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	})
//
// # Errors
//
// Failures of the wrapped operation always pass through unchanged so
// callers can match on the original error. The package's own synthetic
// errors are ErrCircuitOpen, ErrQueueFull, ErrAcquireTimeout,
// ErrRateLimitExceeded, ErrTimeout, and the ConfigError type for
// construction-time misconfiguration.
//
// # Determinism
//
// Every time-dependent component takes an injectable clock/sleep pair in
// its config, so tests advance virtual time without wall-clock waits.
// Diagnostic events go to an optional Sink; everything works with none
// attached.
package resilience
