package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxmatrix/internal/config"
	"github.com/teemow/inboxmatrix/internal/google"
	"github.com/teemow/inboxmatrix/internal/instrumentation"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/session"
	"github.com/teemow/inboxmatrix/internal/storage"
)

// loadConfig resolves the configuration: defaults, then the config file,
// then environment variables, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(globalFlags.configFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("platform") {
		cfg.Platform = globalFlags.platform
	}
	if flags.Changed("account") {
		cfg.Account = globalFlags.account
	}
	if flags.Changed("storage-type") {
		cfg.Storage.Type = globalFlags.storageType
	}
	if flags.Changed("storage-path") {
		cfg.Storage.Path = globalFlags.storagePath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := google.ValidateAccountName(cfg.Account); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newAuthenticator builds the OAuth authenticator from the environment and
// moves a token file of the old single-account layout into place.
func newAuthenticator(logger *slog.Logger) (*google.Authenticator, error) {
	oauthCfg, err := google.OAuthConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens := google.NewTokenStore("")
	if err := tokens.MigrateDefaultToken(); err != nil {
		logger.Warn("failed to migrate legacy token", "error", err)
	}
	return google.NewAuthenticator(oauthCfg, tokens), nil
}

// appOptions carry the parts of a ServerContext that differ between the
// CLI and the MCP server.
type appOptions struct {
	logger        *slog.Logger
	notifications io.Writer
	metrics       *instrumentation.Metrics
	audit         *instrumentation.AuditLogger
}

// app bundles what a command needs to work on a matrix.
type app struct {
	cfg   config.Config
	store storage.BlobStore
	sc    *server.ServerContext
}

// newApp opens the configured store and builds a ServerContext on it.
func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}

	auth, err := newAuthenticator(logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Platform:       cfg.Platform,
		DefaultAccount: cfg.Account,
		Store:          store,
		Tokens:         auth,
		Authenticator:  auth,
		Metrics:        opts.metrics,
		AuditLogger:    opts.audit,
		Logger:         logger,
		Notifications:  opts.notifications,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return &app{cfg: cfg, store: store, sc: sc}, nil
}

// session opens the matrix of the configured account.
func (a *app) session(ctx context.Context) (*session.Session, error) {
	return a.sc.Session(ctx, a.cfg.Account)
}

// Close shuts the server context down and closes the store.
func (a *app) Close() error {
	if err := a.sc.Shutdown(); err != nil {
		return err
	}
	return a.store.Close()
}

// withApp loads the configuration, runs fn on a fresh app and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, appOptions{notifications: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}
