// Package health derives health signals from resilience primitives.
//
// A circuit breaker's state and a resource pool's saturation are natural
// health indicators: a closed circuit is a healthy dependency, a probing
// one is degraded, an open one is down. CircuitChecker and PoolChecker
// translate those states into health results; Aggregator combines many
// checkers into one composite check and HTTP handlers expose the result
// for liveness and readiness probes.
//
// Basic usage:
//
//	agg := health.NewAggregator()
//	agg.Register("payments-circuit", health.NewCircuitChecker("payments-circuit", breaker))
//	agg.Register("worker-pool", health.NewPoolChecker("worker-pool", pool))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// HTTP endpoints:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
