package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls pass through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without invoking the operation.
	StateOpen
	// StateHalfOpen means a single trial call is probing for recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the
	// circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before a
	// half-open probe is admitted. Default: 30s.
	RecoveryTimeout time.Duration

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines whether an error counts as a failure.
	// Default: every non-nil error.
	IsFailure func(err error) bool

	// Clock is the injectable time source; the breaker never reads the
	// wall clock directly. Default: time.Now.
	Clock func() time.Time

	// Sink receives circuit diagnostic events.
	Sink Sink
}

// CircuitBreaker guards a downstream dependency: accumulated failures
// open the circuit, calls short-circuit while it is open, and after the
// recovery timeout exactly one probe at a time tests whether the
// dependency has recovered. One breaker instance guards one resource and
// is safe for concurrent use.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	probeInFlight bool
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Clock == nil {
		config.Clock = defaultClock
	}
	config.Sink = orNopSink(config.Sink)

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs op through the circuit breaker. While the circuit is open,
// or while another caller holds the half-open probe slot, it returns
// ErrCircuitOpen without invoking op. Failures of op itself propagate
// unchanged.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	probe, err := cb.beforeRequest(ctx)
	if err != nil {
		return err
	}

	err = op(ctx)
	cb.afterRequest(ctx, probe, err)
	return err
}

// State returns the current circuit state, accounting for an elapsed
// recovery timeout.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked(context.Background())
}

// FailureCount returns the accumulated consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the breaker back to the closed state with zeroed counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	old := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probeInFlight = false

	if old != StateClosed {
		cb.notifyTransition(context.Background(), old, StateClosed)
	}
}

// beforeRequest admits or rejects a call. It returns probe=true when the
// caller holds the single half-open trial slot.
func (cb *CircuitBreaker) beforeRequest(ctx context.Context) (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked(ctx) {
	case StateOpen:
		cb.config.Sink.Event(ctx, "circuit.rejected", F("state", StateOpen.String()))
		return false, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probeInFlight {
			// A trial is already probing; concurrent callers are
			// rejected as if the circuit were open.
			cb.config.Sink.Event(ctx, "circuit.rejected", F("state", StateHalfOpen.String()))
			return false, ErrCircuitOpen
		}
		cb.probeInFlight = true
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) afterRequest(ctx context.Context, probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)
	old := cb.state

	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			if cb.failures >= cb.config.FailureThreshold {
				cb.lastFailure = cb.config.Clock()
				cb.state = StateOpen
			}
		} else {
			cb.failures = 0
		}

	case StateHalfOpen:
		if !probe {
			// A stray completion from before the transition; the probe
			// slot belongs to someone else.
			return
		}
		cb.probeInFlight = false
		if failed {
			cb.lastFailure = cb.config.Clock()
			cb.state = StateOpen
		} else {
			cb.failures = 0
			cb.state = StateClosed
		}

	case StateOpen:
		// A call admitted before the circuit opened completed late;
		// nothing to account for.
	}

	if old != cb.state {
		cb.notifyTransition(ctx, old, cb.state)
	}
}

// currentStateLocked applies the time-based OPEN → HALF_OPEN transition.
func (cb *CircuitBreaker) currentStateLocked(ctx context.Context) State {
	if cb.state == StateOpen && cb.config.Clock().Sub(cb.lastFailure) >= cb.config.RecoveryTimeout {
		cb.state = StateHalfOpen
		cb.probeInFlight = false
		cb.notifyTransition(ctx, StateOpen, StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) notifyTransition(ctx context.Context, from, to State) {
	cb.config.Sink.Event(ctx, "circuit.transition",
		F("from", from.String()),
		F("to", to.String()),
		F("failures", cb.failures),
	)
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// CircuitBreakerMetrics is a snapshot of breaker statistics.
type CircuitBreakerMetrics struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// Metrics returns a snapshot of the breaker's statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:       cb.currentStateLocked(context.Background()),
		Failures:    cb.failures,
		LastFailure: cb.lastFailure,
	}
}
