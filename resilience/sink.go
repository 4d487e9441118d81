package resilience

import "context"

// Field is a structured key/value pair attached to a diagnostic event.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Sink receives structured diagnostic events from the resilience
// primitives: retry attempts, circuit state transitions, pool admissions
// and rejections.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: event delivery is best-effort and must not panic.
//
// Every component works with no sink attached; a nil Sink in any config
// is replaced by NopSink.
type Sink interface {
	Event(ctx context.Context, name string, fields ...Field)
}

// NopSink discards all events.
var NopSink Sink = nopSink{}

type nopSink struct{}

func (nopSink) Event(ctx context.Context, name string, fields ...Field) {}

func orNopSink(s Sink) Sink {
	if s == nil {
		return NopSink
	}
	return s
}
