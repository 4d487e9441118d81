package resilience

import (
	"context"
	"time"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in diagnostics.
	Name string

	// Pool is the resource pool admission runs through. Required. The
	// pool's concrete type fixes which entry point may be used: Execute
	// needs a *SyncPool, ExecuteContext a *AsyncPool.
	Pool Pool

	// AcquireTimeout bounds how long Execute waits for a permit.
	// Non-positive waits indefinitely. ExecuteContext bounds its wait
	// through the context instead.
	AcquireTimeout time.Duration

	// Sink receives admission diagnostic events.
	Sink Sink
}

// Bulkhead binds a named resource pool to an execution entry point. It
// is stateless beyond the pool reference: admission control happens on
// entry, and the permit is released on every exit path, panics included.
type Bulkhead struct {
	config BulkheadConfig
}

// NewBulkhead creates a bulkhead around the given pool. A nil pool is a
// configuration error.
func NewBulkhead(config BulkheadConfig) (*Bulkhead, error) {
	if config.Pool == nil {
		return nil, configErrorf("bulkhead %q requires a pool", config.Name)
	}
	config.Sink = orNopSink(config.Sink)
	return &Bulkhead{config: config}, nil
}

// Name returns the bulkhead's diagnostic name.
func (b *Bulkhead) Name() string {
	return b.config.Name
}

// Pool returns the bound pool.
func (b *Bulkhead) Pool() Pool {
	return b.config.Pool
}

// Execute runs op in the blocking domain. The bound pool must be a
// *SyncPool; anything else is a configuration error reported before the
// pool is touched and without invoking op. When acquisition fails
// (timeout or full queue) op is never invoked and the failure
// propagates.
func (b *Bulkhead) Execute(op func() error) error {
	pool, ok := b.config.Pool.(*SyncPool)
	if !ok {
		return configErrorf("bulkhead %q: sync execution requires a blocking pool, got %s",
			b.config.Name, b.config.Pool.Mode())
	}

	if err := pool.Acquire(b.config.AcquireTimeout); err != nil {
		b.config.Sink.Event(context.Background(), "bulkhead.rejected",
			F("bulkhead", b.config.Name), F("error", err.Error()))
		return err
	}
	defer pool.Release()

	b.config.Sink.Event(context.Background(), "bulkhead.admitted", F("bulkhead", b.config.Name))
	return op()
}

// ExecuteContext runs op in the cooperative domain. The bound pool must
// be a *AsyncPool; anything else is a configuration error reported
// before the pool is touched and without invoking op.
func (b *Bulkhead) ExecuteContext(ctx context.Context, op func(context.Context) error) error {
	pool, ok := b.config.Pool.(*AsyncPool)
	if !ok {
		return configErrorf("bulkhead %q: async execution requires a cooperative pool, got %s",
			b.config.Name, b.config.Pool.Mode())
	}

	if err := pool.Acquire(ctx); err != nil {
		b.config.Sink.Event(ctx, "bulkhead.rejected",
			F("bulkhead", b.config.Name), F("error", err.Error()))
		return err
	}
	defer pool.Release()

	b.config.Sink.Event(ctx, "bulkhead.admitted", F("bulkhead", b.config.Name))
	return op(ctx)
}
