package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAccount is the account used when none is given.
const DefaultAccount = "default"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrNoToken is returned when no token file exists for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

// ValidateAccountName checks that account is safe to use in a file name.
func ValidateAccountName(account string) error {
	if account == "" {
		return errors.New("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// TokenStore keeps one token file per account in a directory.
type TokenStore struct {
	dir string
}

// NewTokenStore returns a store rooted at dir. An empty dir uses
// DefaultTokenDir.
func NewTokenStore(dir string) *TokenStore {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &TokenStore{dir: dir}
}

// DefaultTokenDir returns the cache directory for token files.
func DefaultTokenDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "inboxmatrix")
	}
	return filepath.Join(os.TempDir(), "inboxmatrix")
}

// Dir returns the directory holding token files.
func (s *TokenStore) Dir() string { return s.dir }

// Path returns the token file for account.
func (s *TokenStore) Path(account string) string {
	return filepath.Join(s.dir, "google-"+account+".token")
}

// Has reports whether a token file exists for account.
func (s *TokenStore) Has(account string) bool {
	if ValidateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(s.Path(account))
	return err == nil
}

// Load reads the token for account. Both the JSON format and the legacy
// "<access> <refresh>" format are accepted.
func (s *TokenStore) Load(account string) (*oauth2.Token, error) {
	if err := ValidateAccountName(account); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	return parseToken(data)
}

func parseToken(data []byte) (*oauth2.Token, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var tok oauth2.Token
		if err := json.Unmarshal([]byte(trimmed), &tok); err != nil {
			return nil, fmt.Errorf("invalid token file: %w", err)
		}
		return &tok, nil
	}

	f := strings.Fields(trimmed)
	if len(f) != 2 {
		return nil, errors.New("invalid token format")
	}
	// Expired on purpose so the refresh token is used on first request.
	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

// Save writes tok for account with owner-only permissions.
func (s *TokenStore) Save(account string, tok *oauth2.Token) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	if tok == nil {
		return errors.New("token is nil")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.Path(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// MigrateDefaultToken renames the single-account google.token file to the
// default account's file. It is a no-op when there is nothing to migrate or
// the default token already exists.
func (s *TokenStore) MigrateDefaultToken() error {
	legacy := filepath.Join(s.dir, "google.token")
	if _, err := os.Stat(legacy); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if s.Has(DefaultAccount) {
		return nil
	}
	if err := os.Rename(legacy, s.Path(DefaultAccount)); err != nil {
		return fmt.Errorf("failed to migrate legacy token: %w", err)
	}
	return nil
}

// AuthenticationErrorMessage explains how to authorize account.
func AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("No valid Google OAuth token for account %q. "+
		"Run 'inboxmatrix auth url --account %s' or call the google_get_auth_url tool, "+
		"then save the authorization code with google_save_auth_code.", account, account)
}
