package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/config"
	"github.com/teemow/inboxmatrix/internal/instrumentation"
	"github.com/teemow/inboxmatrix/internal/logging"
	"github.com/teemow/inboxmatrix/internal/resources"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/tools/gmail_tools"
	"github.com/teemow/inboxmatrix/internal/tools/google_tools"
	"github.com/teemow/inboxmatrix/internal/tools/matrix_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects the serve flags after environment fallbacks.
type serveOptions struct {
	debug     bool
	logFormat string
	transport string
	httpAddr  string
	readOnly  bool
	http      server.HTTPConfig
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server so AI assistants can
triage email into the Eisenhower matrix.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and
    /readyz

Read-only mode:
  --read-only registers only the tools that read the matrix and the
  mailbox. Can also use INBOXMATRIX_READ_ONLY env var.

Storage and platform:
  The matrix store and platform adapter come from the global flags, the
  config file or INBOXMATRIX_* env vars. Use --storage-type valkey or
  sqlite to share the matrix between server instances or restarts.

Gmail:
  --platform gmail reads messages with the token saved by
  "inboxmatrix auth save". The google_get_auth_url and google_save_auth_code
  tools run the same flow from the assistant.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loadServeEnvVars(cmd, &opts)
			if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
				return fmt.Errorf("unsupported transport: %s (supported: stdio, streamable-http)", opts.transport)
			}
			opts.http.Addr = opts.httpAddr

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if opts.debug {
				level = slog.LevelDebug
			}
			logger := logging.NewLogger(os.Stderr, opts.logFormat, level)
			slog.SetDefault(logger)

			return runServe(cfg, opts, logger)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format on stderr: text or json. Can also use LOG_FORMAT env var.")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Register only tools that do not change the matrix. Can also use INBOXMATRIX_READ_ONLY env var.")

	// TLS flags for HTTPS support
	cmd.Flags().StringVar(&opts.http.TLSCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	cmd.Flags().StringVar(&opts.http.TLSKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables to every flag that was
// not set explicitly.
func loadServeEnvVars(cmd *cobra.Command, opts *serveOptions) {
	flags := cmd.Flags()

	if !flags.Changed("log-format") {
		if v := os.Getenv("LOG_FORMAT"); v != "" {
			opts.logFormat = v
		}
	}
	if !flags.Changed("read-only") {
		if v, ok := envBool("INBOXMATRIX_READ_ONLY"); ok {
			opts.readOnly = v
		}
	}
	if !flags.Changed("tls-cert-file") {
		if v := os.Getenv("TLS_CERT_FILE"); v != "" {
			opts.http.TLSCertFile = v
		}
	}
	if !flags.Changed("tls-key-file") {
		if v := os.Getenv("TLS_KEY_FILE"); v != "" {
			opts.http.TLSKeyFile = v
		}
	}
	if !flags.Changed("metrics-enabled") {
		if v, ok := envBool("METRICS_ENABLED"); ok {
			opts.metrics.Enabled = v
		}
	}
	if !flags.Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			opts.metrics.Addr = v
		}
	}
}

// envBool reads a boolean environment variable. Unparseable values are
// logged and ignored.
func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring invalid boolean environment variable", "name", name, "value", raw)
		return false, false
	}
	return v, true
}

func runServe(cfg config.Config, opts serveOptions, logger *slog.Logger) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig, err := instrumentation.DefaultConfig()
	if err != nil {
		logger.Warn("using default instrumentation config", logging.Err(err))
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var audit *instrumentation.AuditLogger
	if instrConfig.AuditLogging.Enabled {
		audit = instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)
	}

	a, err := newApp(shutdownCtx, cfg, appOptions{
		logger:  logger,
		metrics: provider.Metrics(),
		audit:   audit,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxmatrix", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	if opts.readOnly {
		logger.Info("starting server in read-only mode")
	}
	if err := registerAll(mcpSrv, a.sc, opts.readOnly); err != nil {
		return err
	}

	logger.Info("inboxmatrix MCP server ready",
		slog.String("version", version),
		slog.String("transport", opts.transport),
		logging.Platform(cfg.Platform),
		logging.Account(cfg.Account),
		logging.Backend(cfg.Storage.Type),
	)

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, a.sc, opts, provider, logger)
	default:
		return runStdioServer(shutdownCtx, mcpSrv, logger)
	}
}

// registerAll registers every tool and resource on mcpSrv.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"matrix tools", func() error { return matrix_tools.RegisterMatrixTools(mcpSrv, sc, readOnly) }},
		{"Gmail tools", func() error { return gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly) }},
		{"Google tools", func() error { return google_tools.RegisterGoogleTools(mcpSrv, sc) }},
		{"matrix resources", func() error { return resources.RegisterMatrixResources(mcpSrv, sc) }},
	}
	for _, r := range registrations {
		if err := r.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.name, err)
		}
	}
	return nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- mcpserver.ServeStdio(mcpSrv)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions, provider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, opts.http)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case serveErr = <-errCh:
		logger.Error("server failed", logging.Err(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	logger.Info("HTTP server stopped")
	return errors.Join(errs...)
}
