package resilience

import (
	"context"
	"sync"
	"time"
)

// syncWaiter is a queued blocking acquirer. Its channel has capacity one
// so a release can hand the permit over without blocking; handoff and
// dequeue both happen under the pool lock, so a waiter that has been
// removed from the queue can never be granted afterwards.
type syncWaiter struct {
	ready chan struct{}
}

// SyncPool is the blocking-domain resource pool: Acquire parks the
// calling OS thread until a permit frees up or the timeout elapses.
// Waiters are served strictly FIFO; a released permit is transferred to
// the longest-waiting caller before any new acquirer is admitted.
//
// Driving a SyncPool from cooperative code without an explicit thread
// handoff violates the caller contract; the Bulkhead entry points reject
// the mismatch up front.
type SyncPool struct {
	config PoolConfig

	// after is the injectable timeout source for deterministic tests.
	after func(d time.Duration) <-chan time.Time

	mu      sync.Mutex
	active  int
	waiters []*syncWaiter
	stats   PoolStats
}

// NewSyncPool creates a blocking resource pool.
func NewSyncPool(config PoolConfig) (*SyncPool, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return &SyncPool{
		config: config,
		after:  time.After,
	}, nil
}

// Mode reports PoolBlocking.
func (p *SyncPool) Mode() PoolMode {
	return PoolBlocking
}

// Acquire takes a permit, blocking the calling thread for up to timeout
// when the pool is saturated. A non-positive timeout waits indefinitely.
// It returns nil on success, ErrQueueFull when the wait queue is at
// capacity (without waiting), and ErrAcquireTimeout when the timeout
// elapses first; a timed-out waiter is dequeued and can never receive a
// later handoff.
func (p *SyncPool) Acquire(timeout time.Duration) error {
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
		p.config.Sink.Event(context.Background(), "pool.rejected", F("mode", PoolBlocking.String()))
		return ErrQueueFull
	}

	w := &syncWaiter{ready: make(chan struct{}, 1)}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	// Wait outside the lock.
	var expired <-chan time.Time
	if timeout > 0 {
		expired = p.after(timeout)
	}

	select {
	case <-w.ready:
		return nil
	case <-expired:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The permit may have been handed over in the same instant the
	// timeout fired; the transfer happened while this caller was still
	// queued, so it counts as a successful acquisition.
	select {
	case <-w.ready:
		return nil
	default:
	}

	p.removeWaiterLocked(w)
	p.stats.TimedOut++
	p.config.Sink.Event(context.Background(), "pool.timeout", F("mode", PoolBlocking.String()))
	return ErrAcquireTimeout
}

// Release returns a permit. If a waiter is queued, the permit is handed
// to the head of the FIFO queue instead of being freed; the waiter's
// Acquire completes without re-incrementing the active count because the
// slot is transferred, not re-allocated.
func (p *SyncPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++

	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.stats.Acquired++
		w.ready <- struct{}{}
		return
	}

	if p.active > 0 {
		p.active--
	}
}

// ActiveCount returns the number of permits currently held.
func (p *SyncPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// AvailableCapacity returns the number of free permits.
func (p *SyncPool) AvailableCapacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.MaxConcurrent - p.active
}

// QueueSize returns the number of queued waiters.
func (p *SyncPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}

// Stats returns a snapshot of the pool's counters.
func (p *SyncPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.Mode = PoolBlocking
	s.MaxConcurrent = p.config.MaxConcurrent
	s.MaxQueue = p.config.MaxQueue
	s.Active = p.active
	s.Available = p.config.MaxConcurrent - p.active
	s.Queued = len(p.waiters)
	return s
}

func (p *SyncPool) removeWaiterLocked(w *syncWaiter) {
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}
