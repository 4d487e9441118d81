package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/provide-io/provide-foundation-sub000/resilience"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
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

func openBreaker(t *testing.T, clock *fakeClock) *resilience.CircuitBreaker {
	t.Helper()
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		Clock:            clock.Now,
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("downstream unavailable")
	})
	if cb.State() != resilience.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}
	return cb
}

func TestCircuitChecker_Closed(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	checker := NewCircuitChecker("payments-circuit", cb)

	if checker.Name() != "payments-circuit" {
		t.Errorf("Name() = %q, want payments-circuit", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want healthy", result.Status)
	}
	if result.Details["state"] != "closed" {
		t.Errorf("state detail = %v, want closed", result.Details["state"])
	}
}

func TestCircuitChecker_Open(t *testing.T) {
	cb := openBreaker(t, newFakeClock())
	checker := NewCircuitChecker("payments-circuit", cb)

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Check() status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, resilience.ErrCircuitOpen) {
		t.Errorf("Check() error = %v, want ErrCircuitOpen", result.Error)
	}
}

func TestCircuitChecker_HalfOpen(t *testing.T) {
	clock := newFakeClock()
	cb := openBreaker(t, clock)

	clock.Advance(2 * time.Minute)
	checker := NewCircuitChecker("payments-circuit", cb)

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Check() status = %v, want degraded after recovery window", result.Status)
	}
	if result.Details["state"] != "half-open" {
		t.Errorf("state detail = %v, want half-open", result.Details["state"])
	}
}

func TestPoolChecker_Healthy(t *testing.T) {
	pool, err := resilience.NewSyncPool(resilience.PoolConfig{MaxConcurrent: 2})
	if err != nil {
		t.Fatalf("NewSyncPool() error = %v", err)
	}
	checker := NewPoolChecker("worker-pool", pool)

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() status = %v, want healthy", result.Status)
	}
	if result.Details["available"] != 2 {
		t.Errorf("available detail = %v, want 2", result.Details["available"])
	}
}

func TestPoolChecker_SaturatedWithQueueRoom(t *testing.T) {
	pool, err := resilience.NewAsyncPool(resilience.PoolConfig{MaxConcurrent: 1, MaxQueue: -1})
	if err != nil {
		t.Fatalf("NewAsyncPool() error = %v", err)
	}
	if err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release()

	result := NewPoolChecker("worker-pool", pool).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Check() status = %v, want degraded when saturated with queue room", result.Status)
	}
}

func TestPoolChecker_SaturatedNoQueue(t *testing.T) {
	pool, err := resilience.NewSyncPool(resilience.PoolConfig{MaxConcurrent: 1, MaxQueue: 0})
	if err != nil {
		t.Fatalf("NewSyncPool() error = %v", err)
	}
	if err := pool.Acquire(time.Second); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release()

	result := NewPoolChecker("worker-pool", pool).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Check() status = %v, want unhealthy when saturated with no queue", result.Status)
	}
	if !errors.Is(result.Error, resilience.ErrQueueFull) {
		t.Errorf("Check() error = %v, want ErrQueueFull", result.Error)
	}
}

func TestPoolChecker_RecoversAfterRelease(t *testing.T) {
	pool, err := resilience.NewSyncPool(resilience.PoolConfig{MaxConcurrent: 1, MaxQueue: 0})
	if err != nil {
		t.Fatalf("NewSyncPool() error = %v", err)
	}
	checker := NewPoolChecker("worker-pool", pool)

	if err := pool.Acquire(time.Second); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := checker.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Fatalf("saturated status = %v, want unhealthy", got)
	}

	pool.Release()
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("status after release = %v, want healthy", got)
	}
}
