package resilience

import (
	"context"
	"sync"
)

// asyncWaiter is a queued cooperative acquirer. The granted flag is
// written under the pool lock when a release transfers a permit; the
// cancellation path reads it under the same lock to decide whether a
// permit must be re-released.
type asyncWaiter struct {
	ready   chan struct{}
	granted bool
}

// AsyncPool is the cooperative-domain resource pool: Acquire suspends
// only the calling goroutine and honors context cancellation. Waiters
// are served strictly FIFO; a released permit is transferred to the
// longest-waiting live caller, skipping over cancelled waiters rather
// than being lost.
type AsyncPool struct {
	config PoolConfig

	mu      sync.Mutex
	active  int
	waiters []*asyncWaiter
	stats   PoolStats
}

// NewAsyncPool creates a cooperative resource pool.
func NewAsyncPool(config PoolConfig) (*AsyncPool, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return &AsyncPool{config: config}, nil
}

// Mode reports PoolCooperative.
func (p *AsyncPool) Mode() PoolMode {
	return PoolCooperative
}

// Acquire takes a permit, suspending until one frees up or ctx is done.
// It returns nil on success, ErrQueueFull when the wait queue is at
// capacity (without waiting), and the context error on cancellation or
// deadline. A cancelled waiter is dequeued; a permit granted in the same
// instant the context fires is handed on to the next live waiter, never
// delivered to the cancelled caller and never lost.
func (p *AsyncPool) Acquire(ctx context.Context) error {
	p.mu.Lock()

	if p.active < p.config.MaxConcurrent {
		p.active++
		p.stats.Acquired++
		p.mu.Unlock()
		return nil
	}

	if p.config.MaxQueue >= 0 && len(p.waiters) >= p.config.MaxQueue {
		p.stats.Rejected++
		p.mu.Unlock()
		p.config.Sink.Event(ctx, "pool.rejected", F("mode", PoolCooperative.String()))
		return ErrQueueFull
	}

	w := &asyncWaiter{ready: make(chan struct{})}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if w.granted {
		// The permit arrived while cancellation was being processed. The
		// caller can no longer use it, so pass it on.
		p.releaseLocked()
	} else {
		p.removeWaiterLocked(w)
		p.stats.Cancelled++
		p.config.Sink.Event(ctx, "pool.cancelled", F("mode", PoolCooperative.String()))
	}
	return ctx.Err()
}

// Release returns a permit, handing it to the head of the FIFO queue
// when waiters are queued. The receiving waiter's Acquire completes
// without re-incrementing the active count; the slot is transferred.
func (p *AsyncPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Released++
	p.releaseLocked()
}

func (p *AsyncPool) releaseLocked() {
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		w.granted = true
		close(w.ready)
		p.stats.Acquired++
		return
	}

	if p.active > 0 {
		p.active--
	}
}

// ActiveCount returns the number of permits currently held.
func (p *AsyncPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// AvailableCapacity returns the number of free permits.
func (p *AsyncPool) AvailableCapacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.MaxConcurrent - p.active
}

// QueueSize returns the number of queued waiters.
func (p *AsyncPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}

// Stats returns a snapshot of the pool's counters.
func (p *AsyncPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.Mode = PoolCooperative
	s.MaxConcurrent = p.config.MaxConcurrent
	s.MaxQueue = p.config.MaxQueue
	s.Active = p.active
	s.Available = p.config.MaxConcurrent - p.active
	s.Queued = len(p.waiters)
	return s
}

func (p *AsyncPool) removeWaiterLocked(w *asyncWaiter) {
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}
