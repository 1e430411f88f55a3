package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OutOfBandRedirect shows the authorization code to the user instead of
// redirecting to a local listener.
const OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"

// OAuthConfig holds the OAuth client credentials.
type OAuthConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"urn:ietf:wg:oauth:2.0:oob"`
}

// OAuthConfigFromEnv reads the client credentials from the environment.
func OAuthConfigFromEnv() (OAuthConfig, error) {
	var cfg OAuthConfig
	if err := env.Parse(&cfg); err != nil {
		return OAuthConfig{}, fmt.Errorf("failed to parse OAuth environment: %w", err)
	}
	return cfg, nil
}

// Authenticator runs the authorization code flow and hands out token
// sources backed by a TokenStore.
type Authenticator struct {
	conf   *oauth2.Config
	tokens *TokenStore
}

// NewAuthenticator returns an Authenticator for cfg. Credentials are only
// required for AuthURL and Exchange; stored tokens can be read without them.
func NewAuthenticator(cfg OAuthConfig, tokens *TokenStore) *Authenticator {
	if tokens == nil {
		tokens = NewTokenStore("")
	}
	redirect := cfg.RedirectURL
	if redirect == "" {
		redirect = OutOfBandRedirect
	}
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirect,
			Scopes:       DefaultOAuthScopes,
		},
		tokens: tokens,
	}
}

// Tokens returns the underlying token store.
func (a *Authenticator) Tokens() *TokenStore { return a.tokens }

func (a *Authenticator) requireCredentials() error {
	if a.conf.ClientID == "" || a.conf.ClientSecret == "" {
		return errors.New("google OAuth client is not configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}
	return nil
}

// AuthURL returns the URL the user opens to authorize account.
func (a *Authenticator) AuthURL(account string) (string, error) {
	if err := ValidateAccountName(account); err != nil {
		return "", err
	}
	if err := a.requireCredentials(); err != nil {
		return "", err
	}
	return a.conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and stores it.
func (a *Authenticator) Exchange(ctx context.Context, account, code string) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	if code == "" {
		return errors.New("authorization code cannot be empty")
	}
	if err := a.requireCredentials(); err != nil {
		return err
	}
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return a.tokens.Save(account, tok)
}

// TokenSource implements TokenProvider.
func (a *Authenticator) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	tok, err := a.tokens.Load(account)
	if err != nil {
		return nil, err
	}
	return a.conf.TokenSource(ctx, tok), nil
}

// HasTokenForAccount implements TokenProvider.
func (a *Authenticator) HasTokenForAccount(account string) bool {
	return a.tokens.Has(account)
}

// HTTPClient returns an HTTP client authorized for account. HTTP/2 is
// disabled on the base transport.
func HTTPClient(ctx context.Context, provider TokenProvider, account string) (*http.Client, error) {
	ts, err := provider.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   &http.Transport{ForceAttemptHTTP2: false},
		},
	}, nil
}
