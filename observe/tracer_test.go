package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func TestOpMeta_SpanName(t *testing.T) {
	meta := OpMeta{Name: "payments.charge"}
	if got := meta.SpanName(); got != "resilience.exec.payments.charge" {
		t.Errorf("SpanName() = %q, want %q", got, "resilience.exec.payments.charge")
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	meta := OpMeta{Name: "payments.charge", Component: "executor", Target: "payments"}
	_, span := tracer.StartSpan(context.Background(), meta)
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	got := spans[0]
	if got.Name() != "resilience.exec.payments.charge" {
		t.Errorf("span name = %q, want %q", got.Name(), "resilience.exec.payments.charge")
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}

	attrs := make(map[string]string)
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["op.name"] != "payments.charge" {
		t.Errorf("op.name = %q, want payments.charge", attrs["op.name"])
	}
	if attrs["op.component"] != "executor" {
		t.Errorf("op.component = %q, want executor", attrs["op.component"])
	}
	if attrs["op.target"] != "payments" {
		t.Errorf("op.target = %q, want payments", attrs["op.target"])
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "flaky"})
	tracer.EndSpan(span, errors.New("downstream unavailable"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}

	got := spans[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if len(got.Events()) == 0 {
		t.Error("no span events recorded, want a recorded error")
	}

	for _, kv := range got.Attributes() {
		if string(kv.Key) == "op.error" && !kv.Value.AsBool() {
			t.Error("op.error attribute = false, want true after failure")
		}
	}
}

func TestNoopTracer_NoPanic(t *testing.T) {
	tracer := newNoopTracer()
	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "noop"})
	tracer.EndSpan(span, errors.New("ignored"))
}
