package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMiddleware(t *testing.T) (*Middleware, *tracetest.SpanRecorder, *sdkmetric.ManualReader, *bytes.Buffer) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	return NewMiddleware(NewTracer(tp.Tracer("test")), metrics, logger), recorder, reader, &buf
}

func TestMiddleware_WrapSuccess(t *testing.T) {
	mw, recorder, reader, buf := newTestMiddleware(t)

	invoked := false
	wrapped := mw.Wrap(OpMeta{Name: "payments.charge"}, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if err := wrapped(context.Background()); err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}
	if !invoked {
		t.Fatal("operation was not invoked")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "resilience.exec.payments.charge" {
		t.Errorf("span name = %q, want resilience.exec.payments.charge", spans[0].Name())
	}

	rm := collect(t, reader)
	if got := counterValue(t, rm, "resilience.op.total"); got != 1 {
		t.Errorf("resilience.op.total = %d, want 1", got)
	}
	if got := counterValue(t, rm, "resilience.op.errors"); got != 0 {
		t.Errorf("resilience.op.errors = %d, want 0", got)
	}

	if !strings.Contains(buf.String(), "operation completed") {
		t.Errorf("log output = %q, want completion entry", buf.String())
	}
}

func TestMiddleware_WrapFailure(t *testing.T) {
	mw, _, reader, buf := newTestMiddleware(t)

	opErr := errors.New("downstream unavailable")
	wrapped := mw.Wrap(OpMeta{Name: "flaky"}, func(ctx context.Context) error {
		return opErr
	})

	if err := wrapped(context.Background()); !errors.Is(err, opErr) {
		t.Errorf("wrapped() error = %v, want the operation's failure unchanged", err)
	}

	rm := collect(t, reader)
	if got := counterValue(t, rm, "resilience.op.errors"); got != 1 {
		t.Errorf("resilience.op.errors = %d, want 1", got)
	}

	if !strings.Contains(buf.String(), "operation failed") {
		t.Errorf("log output = %q, want failure entry", buf.String())
	}
	if !strings.Contains(buf.String(), "downstream unavailable") {
		t.Errorf("log output = %q, want the error message", buf.String())
	}
}

func TestMiddleware_ContextFlowsThroughSpan(t *testing.T) {
	mw, recorder, _, _ := newTestMiddleware(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	wrapped := mw.Wrap(OpMeta{Name: "ctx"}, func(ctx context.Context) error {
		if ctx.Value(key{}) != "value" {
			t.Error("parent context value lost inside wrapped operation")
		}
		return nil
	})
	if err := wrapped(ctx); err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}

	if len(recorder.Ended()) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(recorder.Ended()))
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "svc"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}

	wrapped := mw.Wrap(OpMeta{Name: "noop"}, func(ctx context.Context) error { return nil })
	if err := wrapped(context.Background()); err != nil {
		t.Errorf("wrapped() error = %v", err)
	}
}

func TestMiddlewareFromObserver_NilObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) error = %v, want ErrNilObserver", err)
	}
}
