package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore keeps blobs as plain string values on a Valkey server.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore connects to the server described by cfg.
func NewValkeyStore(_ context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	opt, err := valkeyClientOption(cfg)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}
	return newValkeyStoreWithClient(client, cfg.KeyPrefix), nil
}

func newValkeyStoreWithClient(client valkey.Client, prefix string) *ValkeyStore {
	return &ValkeyStore{client: client, prefix: prefix}
}

func valkeyClientOption(cfg ValkeyConfig) (valkey.ClientOption, error) {
	if cfg.URL == "" {
		return valkey.ClientOption{}, errors.New("valkey URL is required (--valkey-url or VALKEY_URL)")
	}
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCAFile != "" {
			pem, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return valkey.ClientOption{}, fmt.Errorf("failed to read valkey CA file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return valkey.ClientOption{}, fmt.Errorf("no certificates found in %s", cfg.TLSCAFile)
			}
			tlsConfig.RootCAs = pool
		}
		opt.TLSConfig = tlsConfig
	}
	return opt, nil
}

// Name implements BlobStore.
func (s *ValkeyStore) Name() string { return TypeValkey }

func (s *ValkeyStore) key(key string) string {
	return s.prefix + key
}

// Get implements BlobStore.
func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("valkey GET %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements BlobStore.
func (s *ValkeyStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key(key)).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("valkey SET %q: %w", key, err)
	}
	return nil
}

// Ping implements BlobStore.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close implements BlobStore.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}
