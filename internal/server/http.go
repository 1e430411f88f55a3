package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/instrumentation"
)

const (
	// DefaultHTTPAddr is the default address for the MCP HTTP server.
	DefaultHTTPAddr = ":8080"

	// DefaultEndpointPath is where the streamable HTTP transport is mounted.
	DefaultEndpointPath = "/mcp"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// HTTPConfig configures the MCP HTTP server.
type HTTPConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// EndpointPath is the MCP endpoint (default "/mcp").
	EndpointPath string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints. Every request is counted in the HTTP metrics.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	health     *HealthChecker
	metrics    *instrumentation.Metrics
	config     HTTPConfig
	httpServer *http.Server
}

// NewHTTPServer creates the HTTP server for mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, errors.New("MCP server is required")
	}
	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return nil, errors.New("both TLS certificate and key files are required to enable HTTPS")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.EndpointPath == "" {
		config.EndpointPath = DefaultEndpointPath
	}

	s := &HTTPServer{
		mcpServer: mcpServer,
		health:    NewHealthChecker(sc),
		config:    config,
	}
	if sc != nil {
		s.metrics = sc.Metrics()
	}
	return s, nil
}

// Health returns the health checker, e.g. to flip readiness on shutdown.
func (s *HTTPServer) Health() *HealthChecker { return s.health }

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string { return s.config.Addr }

// Handler returns the full HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(s.config.EndpointPath),
	)
	mux.Handle(s.config.EndpointPath, streamable)
	s.health.RegisterHealthEndpoints(mux)

	return s.instrument(mux)
}

// Start starts the server in a blocking manner.
func (s *HTTPServer) Start() error {
	// No WriteTimeout: MCP responses may stream.
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	if s.config.TLSCertFile != "" {
		slog.Info("starting MCP HTTPS server", "addr", s.config.Addr, "endpoint", s.config.EndpointPath)
		return s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	slog.Info("starting MCP HTTP server", "addr", s.config.Addr, "endpoint", s.config.EndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, s.pathLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// pathLabel bounds the path label to the routes this server knows.
func (s *HTTPServer) pathLabel(path string) string {
	switch path {
	case s.config.EndpointPath, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}
