package google

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth token sources per account.
type TokenProvider interface {
	// TokenSource returns a token source for account.
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// StaticTokenProvider serves fixed tokens, e.g. injected by a host.
type StaticTokenProvider struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewStaticTokenProvider creates an empty provider.
func NewStaticTokenProvider() *StaticTokenProvider {
	return &StaticTokenProvider{tokens: make(map[string]*oauth2.Token)}
}

// SetToken registers tok for account.
func (p *StaticTokenProvider) SetToken(account string, tok *oauth2.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[account] = tok
}

// TokenSource implements TokenProvider.
func (p *StaticTokenProvider) TokenSource(_ context.Context, account string) (oauth2.TokenSource, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tok, ok := p.tokens[account]
	if !ok {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	return oauth2.StaticTokenSource(tok), nil
}

// HasTokenForAccount implements TokenProvider.
func (p *StaticTokenProvider) HasTokenForAccount(account string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tokens[account]
	return ok
}
