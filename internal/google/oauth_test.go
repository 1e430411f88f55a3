package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountName(tt.account)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTokenStore_Path(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	assert.Equal(t, "google-default.token", filepath.Base(store.Path("default")))
	assert.Equal(t, "google-work.token", filepath.Base(store.Path("work")))
}

func TestTokenStore_SaveLoad(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens"))
	assert.False(t, store.Has("work"))

	_, err := store.Load("work")
	assert.ErrorIs(t, err, ErrNoToken)

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save("work", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}))
	assert.True(t, store.Has("work"))

	info, err := os.Stat(store.Path("work"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := store.Load("work")
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
}

func TestTokenStore_InvalidAccount(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	assert.False(t, store.Has("invalid account"))
	assert.False(t, store.Has(""))
	assert.Error(t, store.Save("../escape", &oauth2.Token{}))
	_, err := store.Load("a/b")
	assert.Error(t, err)
	assert.Error(t, store.Save("ok", nil))
}

func TestTokenStore_LegacyFormat(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("default"), []byte("access_token refresh_token\n"), 0o600))

	tok, err := store.Load("default")
	require.NoError(t, err)
	assert.Equal(t, "access_token", tok.AccessToken)
	assert.Equal(t, "refresh_token", tok.RefreshToken)
	assert.False(t, tok.Valid(), "legacy tokens are refreshed on first use")

	require.NoError(t, os.WriteFile(store.Path("broken"), []byte("only-one-field"), 0o600))
	_, err = store.Load("broken")
	assert.Error(t, err)
}

func TestTokenStore_MigrateDefaultToken(t *testing.T) {
	dir := t.TempDir()
	store := NewTokenStore(dir)

	require.NoError(t, store.MigrateDefaultToken(), "nothing to migrate")

	legacy := filepath.Join(dir, "google.token")
	data := []byte("test_access_token test_refresh_token")
	require.NoError(t, os.WriteFile(legacy, data, 0o600))

	require.NoError(t, store.MigrateDefaultToken())
	_, err := os.Stat(legacy)
	assert.True(t, os.IsNotExist(err), "legacy file is removed")

	got, err := os.ReadFile(store.Path(DefaultAccount))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.MigrateDefaultToken(), "migration is idempotent")
}

func TestAuthenticationErrorMessage(t *testing.T) {
	for _, account := range []string{"default", "work", "personal"} {
		msg := AuthenticationErrorMessage(account)
		assert.Contains(t, msg, account)
		assert.Contains(t, msg, "OAuth")
	}
}

func TestAuthenticator_AuthURL(t *testing.T) {
	auth := NewAuthenticator(OAuthConfig{}, NewTokenStore(t.TempDir()))
	_, err := auth.AuthURL("work")
	assert.Error(t, err, "credentials are required")

	auth = NewAuthenticator(OAuthConfig{ClientID: "client", ClientSecret: "secret"}, NewTokenStore(t.TempDir()))
	_, err = auth.AuthURL("bad name")
	assert.Error(t, err)

	raw, err := auth.AuthURL("work")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "work", q.Get("state"))
	assert.Equal(t, OutOfBandRedirect, q.Get("redirect_uri"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "gmail.readonly")
}

func TestAuthenticator_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	store := NewTokenStore(t.TempDir())
	auth := NewAuthenticator(OAuthConfig{ClientID: "client", ClientSecret: "secret"}, store)
	auth.conf.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}

	ctx := context.Background()
	assert.Error(t, auth.Exchange(ctx, "work", ""))
	assert.Error(t, auth.Exchange(ctx, "work", "bad-code"))
	assert.False(t, auth.HasTokenForAccount("work"))

	require.NoError(t, auth.Exchange(ctx, "work", "good-code"))
	assert.True(t, auth.HasTokenForAccount("work"))

	ts, err := auth.TokenSource(ctx, "work")
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Authorization")))
	}))
	defer srv.Close()

	provider := NewStaticTokenProvider()
	_, err := HTTPClient(context.Background(), provider, "work")
	assert.ErrorIs(t, err, ErrNoToken)

	provider.SetToken("work", &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"})
	assert.True(t, provider.HasTokenForAccount("work"))

	client, err := HTTPClient(context.Background(), provider, "work")
	require.NoError(t, err)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", string(body))
}

func TestOAuthConfigFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "")

	cfg, err := OAuthConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
}
