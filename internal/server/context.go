package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/inboxmatrix/internal/gmail"
	"github.com/teemow/inboxmatrix/internal/google"
	"github.com/teemow/inboxmatrix/internal/instrumentation"
	"github.com/teemow/inboxmatrix/internal/logging"
	"github.com/teemow/inboxmatrix/internal/platform"
	"github.com/teemow/inboxmatrix/internal/session"
	"github.com/teemow/inboxmatrix/internal/storage"
)

// DefaultAccount is used when a tool call names no account.
const DefaultAccount = "default"

// ErrShutdown is returned once the server context has been shut down.
var ErrShutdown = errors.New("server is shutting down")

// Options configure a ServerContext.
type Options struct {
	// Platform is the adapter every session runs on: gmail or local.
	Platform string

	// DefaultAccount is used when a tool call names no account.
	DefaultAccount string

	// Store persists matrices. Required.
	Store storage.BlobStore

	// Tokens authorizes Gmail clients. Required for the gmail platform.
	Tokens google.TokenProvider

	// Authenticator runs the OAuth code flow for the auth tools. Optional.
	Authenticator *google.Authenticator

	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
	Logger      *slog.Logger

	// Notifications receives local adapter notifications. Optional.
	Notifications io.Writer

	// GmailOptions are appended when creating Gmail clients.
	GmailOptions []option.ClientOption
}

// ServerContext holds the shared state of the MCP server: the blob store
// and, per account, a matrix session and a Gmail client.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	platform       string
	defaultAccount string
	store          storage.BlobStore
	tokens         google.TokenProvider
	auth           *google.Authenticator
	metrics        *instrumentation.Metrics
	audit          *instrumentation.AuditLogger
	logger         *slog.Logger
	notifications  io.Writer
	gmailOptions   []option.ClientOption

	mu           sync.RWMutex
	sessions     map[string]*session.Session
	gmailClients map[string]*gmail.Client
	shutdown     bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Store == nil {
		return nil, errors.New("a blob store is required")
	}
	name := opts.Platform
	if name == "" {
		name = platform.NameLocal
	}
	if name != platform.NameLocal && name != platform.NameGmail {
		return nil, fmt.Errorf("unknown platform %q, must be one of: gmail, local", name)
	}
	if name == platform.NameGmail && opts.Tokens == nil {
		return nil, errors.New("the gmail platform requires a token provider")
	}

	account := opts.DefaultAccount
	if account == "" {
		account = DefaultAccount
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:            shutdownCtx,
		cancel:         cancel,
		platform:       name,
		defaultAccount: account,
		store:          storage.Instrumented(opts.Store, opts.Metrics),
		tokens:         opts.Tokens,
		auth:           opts.Authenticator,
		metrics:        opts.Metrics,
		audit:          opts.AuditLogger,
		logger:         logger,
		notifications:  opts.Notifications,
		gmailOptions:   opts.GmailOptions,
		sessions:       make(map[string]*session.Session),
		gmailClients:   make(map[string]*gmail.Client),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Platform returns the adapter name sessions run on.
func (sc *ServerContext) Platform() string { return sc.platform }

// DefaultAccount returns the account used when none is given.
func (sc *ServerContext) DefaultAccount() string { return sc.defaultAccount }

// Store returns the instrumented blob store.
func (sc *ServerContext) Store() storage.BlobStore { return sc.store }

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.audit }

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Authenticator returns the OAuth authenticator, which may be nil.
func (sc *ServerContext) Authenticator() *google.Authenticator { return sc.auth }

// ResolveAccount returns account, or the default account when empty.
func (sc *ServerContext) ResolveAccount(account string) (string, error) {
	if account == "" {
		return sc.defaultAccount, nil
	}
	if err := google.ValidateAccountName(account); err != nil {
		return "", err
	}
	return account, nil
}

// GmailClientForAccount returns the Gmail client for account, creating and
// caching it on first use.
func (sc *ServerContext) GmailClientForAccount(account string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.gmailClientLocked(account)
}

func (sc *ServerContext) gmailClientLocked(account string) (*gmail.Client, error) {
	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}
	if sc.tokens == nil {
		return nil, errors.New(google.AuthenticationErrorMessage(account))
	}

	var (
		client *gmail.Client
		err    error
	)
	if len(sc.gmailOptions) > 0 {
		client, err = gmail.NewClient(sc.ctx, account, sc.gmailOptions...)
	} else {
		client, err = gmail.NewClientForAccount(sc.ctx, sc.tokens, account)
	}
	if err != nil {
		return nil, err
	}
	client.WithRecorder(sc.metrics)
	sc.gmailClients[account] = client
	return client, nil
}

// SetGmailClientForAccount sets the Gmail client for a specific account
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// Session returns the matrix session for account, opening it on first use.
func (sc *ServerContext) Session(ctx context.Context, account string) (*session.Session, error) {
	sc.mu.RLock()
	s, ok := sc.sessions[account]
	shutdown := sc.shutdown
	sc.mu.RUnlock()
	if shutdown {
		return nil, ErrShutdown
	}
	if ok {
		return s, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil, ErrShutdown
	}
	if s, ok := sc.sessions[account]; ok {
		return s, nil
	}

	deps := platform.Deps{
		Store:   sc.store,
		Account: account,
		Out:     sc.notifications,
		Logger:  sc.logger,
	}
	if sc.platform == platform.NameGmail {
		client, err := sc.gmailClientLocked(account)
		if err != nil {
			return nil, err
		}
		deps.Messages = client
	}
	adapter, err := platform.New(sc.platform, deps)
	if err != nil {
		return nil, err
	}

	s, err = session.Open(ctx, adapter, session.Options{
		Account: account,
		Logger:  sc.logger,
		Metrics: sc.metrics,
	})
	if err != nil {
		return nil, err
	}
	sc.sessions[account] = s
	sc.logger.Info("matrix session opened", logging.Account(account), logging.Platform(sc.platform))
	return s, nil
}

// OpenSessions returns the number of open sessions.
func (sc *ServerContext) OpenSessions() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.sessions)
}

// Ping checks that the blob store is reachable.
func (sc *ServerContext) Ping(ctx context.Context) error {
	return sc.store.Ping(ctx)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown closes every session and cancels the server context. The blob
// store is owned by the caller and stays open.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	for account, s := range sc.sessions {
		s.Close(sc.ctx)
		delete(sc.sessions, account)
	}
	sc.cancel()
	return nil
}
