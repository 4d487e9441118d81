package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock, threshold int, recovery time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
		Clock:            clock.Now,
	})
}

var errDownstream = errors.New("downstream unavailable")

func failingOp(calls *int) func(context.Context) error {
	return func(ctx context.Context) error {
		*calls++
		return errDownstream
	}
}

func succeedingOp(calls *int) func(context.Context) error {
	return func(ctx context.Context) error {
		*calls++
		return nil
	}
}

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, time.Minute)
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if cb.FailureCount() != 0 {
		t.Errorf("FailureCount() = %d, want 0", cb.FailureCount())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, time.Minute)
	ctx := context.Background()

	calls := 0
	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, failingOp(&calls)); !errors.Is(err, errDownstream) {
			t.Fatalf("Execute() error = %v, want downstream error", err)
		}
	}

	if cb.State() != StateOpen {
		t.Errorf("State() after %d failures = %v, want open", calls, cb.State())
	}

	// The fourth call is rejected without invoking the operation.
	err := cb.Execute(ctx, failingOp(&calls))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() while open error = %v, want ErrCircuitOpen", err)
	}
	if calls != 3 {
		t.Errorf("operation invoked %d times, want 3", calls)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 3, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	_ = cb.Execute(ctx, failingOp(&calls))
	if cb.FailureCount() != 2 {
		t.Fatalf("FailureCount() = %d, want 2", cb.FailureCount())
	}

	if err := cb.Execute(ctx, succeedingOp(&calls)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cb.FailureCount() != 0 {
		t.Errorf("FailureCount() after success = %d, want 0", cb.FailureCount())
	}
}

func TestCircuitBreaker_RecoveryProbe(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	// Before the recovery timeout the circuit stays shut.
	clock.Advance(30 * time.Second)
	if err := cb.Execute(ctx, succeedingOp(&calls)); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() before recovery error = %v, want ErrCircuitOpen", err)
	}

	// After the timeout one probe is admitted and closes the circuit.
	clock.Advance(31 * time.Second)
	if err := cb.Execute(ctx, succeedingOp(&calls)); err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() after successful probe = %v, want closed", cb.State())
	}
	if cb.FailureCount() != 0 {
		t.Errorf("FailureCount() after recovery = %d, want 0", cb.FailureCount())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	clock.Advance(time.Minute)

	if err := cb.Execute(ctx, failingOp(&calls)); !errors.Is(err, errDownstream) {
		t.Fatalf("probe Execute() error = %v, want downstream error", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("State() after failed probe = %v, want open", cb.State())
	}

	// The failed probe restarts the recovery window.
	clock.Advance(30 * time.Second)
	if err := cb.Execute(ctx, succeedingOp(&calls)); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() before restarted window elapses error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SingleProbeInFlight(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 1, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	clock.Advance(time.Minute)

	probeStarted := make(chan struct{})
	finishProbe := make(chan struct{})
	probeDone := make(chan error, 1)

	go func() {
		probeDone <- cb.Execute(ctx, func(ctx context.Context) error {
			close(probeStarted)
			<-finishProbe
			return nil
		})
	}()

	<-probeStarted

	// A concurrent caller during the probe window is rejected as if open,
	// without invoking the operation.
	concurrent := 0
	if err := cb.Execute(ctx, succeedingOp(&concurrent)); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("concurrent Execute() error = %v, want ErrCircuitOpen", err)
	}
	if concurrent != 0 {
		t.Errorf("concurrent operation invoked %d times, want 0", concurrent)
	}

	close(finishProbe)
	if err := <-probeDone; err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() after probe = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	clock := newFakeClock()

	type transition struct{ from, to State }
	var transitions []transition

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		Clock:            clock.Now,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, transition{from, to})
		},
	})
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	clock.Advance(time.Minute)
	_ = cb.Execute(ctx, succeedingOp(&calls))

	want := []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	errIgnorable := errors.New("not a real failure")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		Clock:            newFakeClock().Now,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, errIgnorable) },
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return errIgnorable })
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed after filtered failures", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(newFakeClock(), 1, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("State() after Reset = %v, want closed", cb.State())
	}
	if cb.FailureCount() != 0 {
		t.Errorf("FailureCount() after Reset = %d, want 0", cb.FailureCount())
	}
}

func TestCircuitBreaker_Metrics(t *testing.T) {
	clock := newFakeClock()
	cb := newTestBreaker(clock, 2, time.Minute)
	ctx := context.Background()

	calls := 0
	_ = cb.Execute(ctx, failingOp(&calls))

	m := cb.Metrics()
	if m.State != StateClosed {
		t.Errorf("Metrics().State = %v, want closed", m.State)
	}
	if m.Failures != 1 {
		t.Errorf("Metrics().Failures = %d, want 1", m.Failures)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
