package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func newTestMetrics(t *testing.T, detailed bool) *Metrics {
	t.Helper()
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()

	for _, detailed := range []bool{false, true} {
		m := newTestMetrics(t, detailed)

		// Should not panic
		m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
		m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationGet, StatusSuccess, 100*time.Millisecond)
		m.RecordToolInvocation(ctx, "matrix_add_item", StatusSuccess, "work", time.Millisecond)
		m.RecordStorageOperation(ctx, "sqlite", OperationSet, StatusError, time.Millisecond)
		m.RecordMatrixMutation(ctx, OperationMove, 2)
		m.RecordMatrixSize(ctx, "work", map[int]int{1: 2, 2: 0, 3: 1, 4: 0})
		m.SessionOpened(ctx)
		m.SessionClosed(ctx)
	}
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()

	var zero Metrics
	zero.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	zero.RecordToolInvocation(ctx, "matrix_stats", StatusSuccess, "", time.Millisecond)
	zero.RecordStorageOperation(ctx, "memory", OperationGet, StatusSuccess, time.Millisecond)
	zero.RecordMatrixMutation(ctx, OperationAdd, 1)
	zero.RecordMatrixSize(ctx, "", map[int]int{1: 1})
	zero.SessionOpened(ctx)

	var nilMetrics *Metrics
	nilMetrics.RecordMatrixMutation(ctx, OperationClear, 0)
	nilMetrics.SessionClosed(ctx)
}
