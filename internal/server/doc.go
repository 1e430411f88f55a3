// Package server provides the MCP server context, the streamable HTTP
// transport and the health and metrics endpoints for inboxmatrix.
//
// # Key Components
//
// ServerContext owns the blob store and lazily opens one matrix session and
// one Gmail client per account. Sessions run on the configured platform
// adapter (gmail or local).
//
// HTTPServer mounts the MCP streamable HTTP transport at /mcp together with
// Kubernetes-style probes:
//   - /healthz: liveness
//   - /readyz: readiness, including a storage ping
//   - /healthz/detailed: uptime, platform, storage backend and open sessions
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
