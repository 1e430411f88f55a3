package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend types.
const (
	TypeMemory = "memory"
	TypeFile   = "file"
	TypeSQLite = "sqlite"
	TypeValkey = "valkey"
)

// ErrClosed is returned by operations on a store after Close.
var ErrClosed = errors.New("storage: store is closed")

// BlobStore persists opaque text blobs under string keys. A missing key is
// reported through the found result, never as an error.
type BlobStore interface {
	// Name returns the backend type, e.g. "sqlite".
	Name() string
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a BlobStore.
type Config struct {
	// Type is the backend: memory, file, sqlite or valkey (default: file)
	Type string `yaml:"type" env:"INBOXMATRIX_STORAGE_TYPE"`

	// Path is the directory for the file backend or the database file for
	// the sqlite backend. Defaults live under the user's data directory.
	Path string `yaml:"path" env:"INBOXMATRIX_STORAGE_PATH"`

	// Valkey configuration (used when Type is "valkey")
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig holds configuration for the Valkey backend.
type ValkeyConfig struct {
	// URL is the server address, e.g. "valkey.namespace.svc:6379"
	URL string `yaml:"url" env:"VALKEY_URL"`

	// Password is the optional password for Valkey authentication
	Password string `yaml:"password" env:"VALKEY_PASSWORD"`

	// TLSEnabled enables TLS for Valkey connections
	TLSEnabled bool `yaml:"tls_enabled" env:"VALKEY_TLS_ENABLED"`

	// TLSCAFile is a PEM bundle used to verify the server certificate.
	TLSCAFile string `yaml:"tls_ca_file" env:"VALKEY_TLS_CA_FILE"`

	// KeyPrefix is prepended to every key (default: "inboxmatrix:")
	KeyPrefix string `yaml:"key_prefix" env:"VALKEY_KEY_PREFIX"`

	// DB is the Valkey database number (default: 0)
	DB int `yaml:"db" env:"VALKEY_DB"`
}

// DefaultConfig returns the file backend under the default data directory.
func DefaultConfig() Config {
	return Config{
		Type: TypeFile,
		Valkey: ValkeyConfig{
			KeyPrefix: "inboxmatrix:",
		},
	}
}

// New opens the backend described by cfg.
func New(ctx context.Context, cfg Config) (BlobStore, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeFile, "":
		dir := cfg.Path
		if dir == "" {
			dir = filepath.Join(DataDir(), "blobs")
		}
		return NewFileStore(dir)
	case TypeSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(DataDir(), "matrix.db")
		}
		return NewSQLiteStore(ctx, path)
	case TypeValkey:
		return NewValkeyStore(ctx, cfg.Valkey)
	default:
		return nil, fmt.Errorf("unsupported storage type %q, must be one of: memory, file, sqlite, valkey", cfg.Type)
	}
}

// DataDir returns the directory for persisted matrices, honoring
// XDG_DATA_HOME and falling back to the user's cache directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "inboxmatrix")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "inboxmatrix")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "inboxmatrix")
	}
	return "inboxmatrix-data"
}
