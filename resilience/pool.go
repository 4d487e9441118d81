package resilience

// PoolMode identifies the execution domain a pool belongs to.
type PoolMode int

const (
	// PoolBlocking pools park OS threads while waiting for a permit.
	PoolBlocking PoolMode = iota
	// PoolCooperative pools suspend only the waiting goroutine and obey
	// context cancellation.
	PoolCooperative
)

// String returns the string representation of the mode.
func (m PoolMode) String() string {
	switch m {
	case PoolBlocking:
		return "blocking"
	case PoolCooperative:
		return "cooperative"
	default:
		return "unknown"
	}
}

// PoolConfig configures a resource pool.
type PoolConfig struct {
	// MaxConcurrent is the number of permits. Default: 10.
	MaxConcurrent int

	// MaxQueue bounds the wait queue: 0 disables queuing (a full pool
	// rejects immediately), -1 allows an unbounded queue, and n > 0
	// admits at most n waiters before acquisition fails with
	// ErrQueueFull.
	MaxQueue int

	// Sink receives pool diagnostic events.
	Sink Sink
}

func (c *PoolConfig) normalize() error {
	if c.MaxConcurrent < 0 {
		return configErrorf("pool max concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 10
	}
	if c.MaxQueue < -1 {
		return configErrorf("pool max queue must be -1, 0, or positive, got %d", c.MaxQueue)
	}
	c.Sink = orNopSink(c.Sink)
	return nil
}

// PoolStats is a snapshot of a pool's counters.
type PoolStats struct {
	// Mode is the pool's execution domain.
	Mode PoolMode

	// MaxConcurrent, Active, Available, and Queued describe the current
	// admission picture.
	MaxConcurrent int
	Active        int
	Available     int
	Queued        int

	// MaxQueue is the configured queue bound (-1 when unbounded).
	MaxQueue int

	// Cumulative counters.
	Acquired  int64
	Released  int64
	TimedOut  int64
	Cancelled int64
	Rejected  int64
}

// Pool is the read-only surface shared by both pool implementations.
// Acquisition and release live on the concrete types because their
// signatures differ between the blocking and cooperative domains; the
// Bulkhead entry points enforce that split.
type Pool interface {
	// Mode reports the pool's execution domain.
	Mode() PoolMode

	// ActiveCount returns the number of permits currently held.
	ActiveCount() int

	// AvailableCapacity returns the number of free permits.
	AvailableCapacity() int

	// QueueSize returns the number of queued waiters.
	QueueSize() int

	// Stats returns a snapshot of the pool's counters.
	Stats() PoolStats
}
