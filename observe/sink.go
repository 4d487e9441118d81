package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/provide-io/provide-foundation-sub000/resilience"
)

// EventSink adapts a Logger and an OpenTelemetry meter into a
// resilience.Sink. Each diagnostic event becomes a structured log entry
// plus an increment on the instrument for its event family.
//
// Contract:
// - Concurrency: safe for concurrent use; instruments and Logger are.
// - Errors: event handling is best-effort and never fails the caller.
type EventSink struct {
	logger Logger

	retryAttempts      metric.Int64Counter
	retryDelay         metric.Float64Histogram
	circuitTransitions metric.Int64Counter
	circuitRejections  metric.Int64Counter
	poolRejections     metric.Int64Counter
	bulkheadAdmissions metric.Int64Counter
	bulkheadRejections metric.Int64Counter
	fallbackAttempts   metric.Int64Counter
}

// NewEventSink creates an EventSink recording to logger and meter.
// A nil logger discards log output.
func NewEventSink(logger Logger, meter metric.Meter) (*EventSink, error) {
	if logger == nil {
		logger = NopLogger()
	}

	s := &EventSink{logger: logger}

	instruments := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&s.retryAttempts, "resilience.retry.attempts", "Retries performed after a failed attempt", "{retry}"},
		{&s.circuitTransitions, "resilience.circuit.transitions", "Circuit breaker state transitions", "{transition}"},
		{&s.circuitRejections, "resilience.circuit.rejections", "Calls rejected by an open or probing circuit", "{call}"},
		{&s.poolRejections, "resilience.pool.rejections", "Pool admissions that were rejected, timed out, or cancelled", "{call}"},
		{&s.bulkheadAdmissions, "resilience.bulkhead.admissions", "Operations admitted by a bulkhead", "{call}"},
		{&s.bulkheadRejections, "resilience.bulkhead.rejections", "Operations rejected by a bulkhead", "{call}"},
		{&s.fallbackAttempts, "resilience.fallback.attempts", "Fallback invocations after a primary failure", "{call}"},
	}
	for _, in := range instruments {
		c, err := meter.Int64Counter(in.name,
			metric.WithDescription(in.desc),
			metric.WithUnit(in.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("observe: creating %s: %w", in.name, err)
		}
		*in.dst = c
	}

	h, err := meter.Float64Histogram("resilience.retry.delay_ms",
		metric.WithDescription("Backoff delay applied before a retry"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: creating resilience.retry.delay_ms: %w", err)
	}
	s.retryDelay = h

	return s, nil
}

// EventSinkFromObserver creates an EventSink bound to an Observer's
// logger and meter.
func EventSinkFromObserver(obs Observer) (*EventSink, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	return NewEventSink(obs.Logger(), obs.Meter())
}

// Event implements resilience.Sink.
func (s *EventSink) Event(ctx context.Context, name string, fields ...Field) {
	opt := metric.WithAttributes(eventAttrs(name, fields)...)

	switch name {
	case "retry.attempt":
		s.retryAttempts.Add(ctx, 1, opt)
		if ms, ok := fieldFloat(fields, "delay_ms"); ok {
			s.retryDelay.Record(ctx, ms, opt)
		}
		s.logger.Debug(ctx, name, fields...)
	case "circuit.transition":
		s.circuitTransitions.Add(ctx, 1, opt)
		s.logger.Info(ctx, name, fields...)
	case "circuit.rejected":
		s.circuitRejections.Add(ctx, 1, opt)
		s.logger.Warn(ctx, name, fields...)
	case "pool.rejected", "pool.timeout", "pool.cancelled":
		s.poolRejections.Add(ctx, 1, opt)
		s.logger.Warn(ctx, name, fields...)
	case "bulkhead.admitted":
		s.bulkheadAdmissions.Add(ctx, 1, opt)
		s.logger.Debug(ctx, name, fields...)
	case "bulkhead.rejected":
		s.bulkheadRejections.Add(ctx, 1, opt)
		s.logger.Warn(ctx, name, fields...)
	case "fallback.attempt":
		s.fallbackAttempts.Add(ctx, 1, opt)
		s.logger.Info(ctx, name, fields...)
	default:
		// Unknown events are logged but not counted.
		s.logger.Debug(ctx, name, fields...)
	}
}

// eventAttrs converts event fields into metric attributes. Only low
// cardinality string and state fields become attributes; errors and
// counters stay in the log entry alone.
func eventAttrs(name string, fields []Field) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("event", name)}
	for _, f := range fields {
		switch f.Key {
		case "bulkhead", "mode", "state", "from", "to":
			if v, ok := f.Value.(string); ok {
				attrs = append(attrs, attribute.String(f.Key, v))
			}
		}
	}
	return attrs
}

func fieldFloat(fields []Field, key string) (float64, bool) {
	for _, f := range fields {
		if f.Key == key {
			v, ok := f.Value.(float64)
			return v, ok
		}
	}
	return 0, false
}

var _ resilience.Sink = (*EventSink)(nil)
