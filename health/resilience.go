package health

import (
	"context"
	"fmt"

	"github.com/provide-io/provide-foundation-sub000/resilience"
)

// CircuitChecker reports the health of a dependency guarded by a circuit
// breaker. A closed circuit means the dependency is serving normally, a
// half-open circuit is probing recovery, and an open circuit means the
// dependency is down.
type CircuitChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewCircuitChecker creates a checker reporting on breaker.
func NewCircuitChecker(name string, breaker *resilience.CircuitBreaker) *CircuitChecker {
	return &CircuitChecker{name: name, breaker: breaker}
}

// Name returns the name of this checker.
func (c *CircuitChecker) Name() string {
	return c.name
}

// Check translates the breaker's state into a health result.
func (c *CircuitChecker) Check(ctx context.Context) Result {
	state := c.breaker.State()
	details := map[string]any{
		"state":    state.String(),
		"failures": c.breaker.FailureCount(),
	}

	switch state {
	case resilience.StateClosed:
		return Healthy("circuit closed").WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing recovery").WithDetails(details)
	default:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	}
}

// PoolChecker reports the health of a resource pool. A pool with spare
// capacity is healthy; a saturated pool whose queue still has room is
// degraded; a saturated pool that can no longer enqueue waiters is
// unhealthy.
type PoolChecker struct {
	name string
	pool resilience.Pool
}

// NewPoolChecker creates a checker reporting on pool.
func NewPoolChecker(name string, pool resilience.Pool) *PoolChecker {
	return &PoolChecker{name: name, pool: pool}
}

// Name returns the name of this checker.
func (c *PoolChecker) Name() string {
	return c.name
}

// Check translates the pool's saturation into a health result.
func (c *PoolChecker) Check(ctx context.Context) Result {
	stats := c.pool.Stats()
	details := map[string]any{
		"mode":      stats.Mode.String(),
		"active":    stats.Active,
		"available": stats.Available,
		"queued":    stats.Queued,
	}

	if stats.Available > 0 {
		return Healthy("pool has capacity").WithDetails(details)
	}

	queueHasRoom := stats.MaxQueue == -1 || stats.Queued < stats.MaxQueue
	if queueHasRoom {
		return Degraded("pool saturated, queue absorbing").WithDetails(details)
	}

	return Unhealthy(
		fmt.Sprintf("pool saturated, queue full at %d", stats.Queued),
		resilience.ErrQueueFull,
	).WithDetails(details)
}
