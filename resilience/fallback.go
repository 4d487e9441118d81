package resilience

import "context"

// FallbackChainConfig configures a fallback chain.
type FallbackChainConfig struct {
	// ShouldFallback decides whether a failure triggers the fallbacks.
	// Default: every non-nil error.
	ShouldFallback func(err error) bool

	// Sink receives fallback diagnostic events.
	Sink Sink
}

// FallbackChain tries an ordered list of alternatives after the primary
// operation fails. The first success wins; when everything fails, the
// last failure propagates unchanged.
type FallbackChain struct {
	config    FallbackChainConfig
	fallbacks []func(context.Context) error
}

// NewFallbackChain creates an empty chain.
func NewFallbackChain(config FallbackChainConfig) *FallbackChain {
	if config.ShouldFallback == nil {
		config.ShouldFallback = func(err error) bool { return err != nil }
	}
	config.Sink = orNopSink(config.Sink)
	return &FallbackChain{config: config}
}

// AddFallback appends an alternative. Fallbacks run in registration
// order.
func (c *FallbackChain) AddFallback(fn func(context.Context) error) *FallbackChain {
	c.fallbacks = append(c.fallbacks, fn)
	return c
}

// Execute runs primary, then walks the fallbacks on failure. Fallbacks
// never run after a success, and a failure ShouldFallback declines is
// returned as-is.
func (c *FallbackChain) Execute(ctx context.Context, primary func(context.Context) error) error {
	err := primary(ctx)
	if err == nil || !c.config.ShouldFallback(err) {
		return err
	}

	for i, fn := range c.fallbacks {
		c.config.Sink.Event(ctx, "fallback.attempt",
			F("index", i), F("error", err.Error()))

		ferr := fn(ctx)
		if ferr == nil {
			return nil
		}
		err = ferr
	}

	return err
}
