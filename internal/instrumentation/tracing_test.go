package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpans(t *testing.T) {
	recorder := withRecorder(t)
	ctx := context.Background()

	_, span := StartToolSpan(ctx, "matrix_add_item", "work")
	SetSpanSuccess(span)
	span.End()

	_, span = StartGoogleAPISpan(ctx, ServiceGmail, OperationGet)
	SetSpanError(span, errors.New("boom"))
	span.End()

	_, span = StartStorageSpan(ctx, "sqlite", OperationSet, "eisenhowerMatrix")
	SetSpanError(span, nil)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	wantNames := []string{"tool.matrix_add_item", "google.gmail.get", "storage.sqlite.set"}
	for i, want := range wantNames {
		if spans[i].Name() != want {
			t.Errorf("span %d name = %q, want %q", i, spans[i].Name(), want)
		}
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("tool span status = %v, want Ok", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("google span status = %v, want Error", spans[1].Status().Code)
	}
	if spans[2].Status().Code != codes.Unset {
		t.Errorf("storage span status = %v, want Unset", spans[2].Status().Code)
	}
}

func TestTraceIDs(t *testing.T) {
	if GetTraceID(context.Background()) != "" || GetSpanID(context.Background()) != "" {
		t.Error("expected empty ids without a span")
	}

	withRecorder(t)
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	if len(GetTraceID(ctx)) != 32 {
		t.Errorf("trace id = %q", GetTraceID(ctx))
	}
	if len(GetSpanID(ctx)) != 16 {
		t.Errorf("span id = %q", GetSpanID(ctx))
	}
}
