// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the inboxmatrix MCP server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//   - matrix_storage_operations_total, matrix_storage_operation_duration_seconds
//   - matrix_mutations_total by operation and quadrant
//   - matrix_items per quadrant
//   - matrix_open_sessions
//
// # Tracing
//
// Spans are created for tool calls (tool.<name>), Gmail API calls
// (google.gmail.<operation>) and blob storage access
// (storage.<backend>.<operation>).
//
// # Configuration
//
// Config is read from the environment with DefaultConfig:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: inboxmatrix)
//   - METRICS_DETAILED_LABELS, AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ARGUMENTS
package instrumentation
