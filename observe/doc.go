// Package observe provides structured logging, OpenTelemetry tracing,
// and metrics for resilience-guarded operations.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. EventSink bridges the resilience package's
// diagnostic events into logs and instruments; Middleware wraps individual
// operations with a span, execution metrics, and a structured log line.
package observe
