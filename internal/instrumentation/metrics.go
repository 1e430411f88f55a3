package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrAccount   = "account"
	attrBackend   = "backend"
	attrQuadrant  = "quadrant"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// Metrics records the server's observability metrics. A zero Metrics is a
// valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	storageOperationsTotal   metric.Int64Counter
	storageOperationDuration metric.Float64Histogram

	matrixMutationsTotal metric.Int64Counter
	matrixItems          metric.Int64Gauge
	openSessions         metric.Int64UpDownCounter

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string) {
		if err != nil {
			return
		}
		*dst, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(durationBuckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
	}

	counter(&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}")
	histogram(&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds")
	counter(&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}")
	histogram(&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds")
	counter(&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	histogram(&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds")
	counter(&m.storageOperationsTotal, "matrix_storage_operations_total", "Total number of matrix blob storage operations", "{operation}")
	histogram(&m.storageOperationDuration, "matrix_storage_operation_duration_seconds", "Matrix blob storage operation duration in seconds")
	counter(&m.matrixMutationsTotal, "matrix_mutations_total", "Total number of matrix mutations by operation and quadrant", "{mutation}")
	if err != nil {
		return nil, err
	}

	m.matrixItems, err = meter.Int64Gauge(
		"matrix_items",
		metric.WithDescription("Number of items per quadrant after the last persisted mutation"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix_items gauge: %w", err)
	}

	m.openSessions, err = meter.Int64UpDownCounter(
		"matrix_open_sessions",
		metric.WithDescription("Number of open per-account matrix sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix_open_sessions counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API call such as a Gmail
// message lookup.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation. The account label is
// only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordStorageOperation records a blob store get or set.
func (m *Metrics) RecordStorageOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.storageOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.storageOperationsTotal.Add(ctx, 1, attrs)
	m.storageOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordMatrixMutation counts a successful matrix mutation. quadrant is 0
// for operations that do not target a single quadrant.
func (m *Metrics) RecordMatrixMutation(ctx context.Context, operation string, quadrant int) {
	if m == nil || m.matrixMutationsTotal == nil {
		return
	}

	m.matrixMutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrQuadrant, QuadrantLabel(quadrant)),
	))
}

// RecordMatrixSize records the item count of every quadrant for account.
func (m *Metrics) RecordMatrixSize(ctx context.Context, account string, byQuadrant map[int]int) {
	if m == nil || m.matrixItems == nil {
		return
	}

	for q, n := range byQuadrant {
		attrs := []attribute.KeyValue{attribute.String(attrQuadrant, QuadrantLabel(q))}
		if m.detailedLabels && account != "" {
			attrs = append(attrs, attribute.String(attrAccount, account))
		}
		m.matrixItems.Record(ctx, int64(n), metric.WithAttributes(attrs...))
	}
}

// SessionOpened increments the open sessions counter.
func (m *Metrics) SessionOpened(ctx context.Context) {
	if m == nil || m.openSessions == nil {
		return
	}
	m.openSessions.Add(ctx, 1)
}

// SessionClosed decrements the open sessions counter.
func (m *Metrics) SessionClosed(ctx context.Context) {
	if m == nil || m.openSessions == nil {
		return
	}
	m.openSessions.Add(ctx, -1)
}
