// Package config loads the inboxmatrix settings shared by the CLI and the
// MCP server: which platform adapter to use, which account to triage and
// where the matrix is stored.
//
// Values are layered: built-in defaults, then the optional YAML file, then
// environment variables. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/teemow/inboxmatrix/internal/storage"
)

// Platform names.
const (
	PlatformLocal = "local"
	PlatformGmail = "gmail"
)

// DefaultAccount is the account used when none is given.
const DefaultAccount = "default"

// Config is the resolved configuration.
type Config struct {
	// Platform selects the host adapter: local or gmail (default: local)
	Platform string `yaml:"platform" env:"INBOXMATRIX_PLATFORM"`

	// Account names the Google account and matrix namespace (default: "default")
	Account string `yaml:"account" env:"INBOXMATRIX_ACCOUNT"`

	// Storage selects the blob store backend.
	Storage storage.Config `yaml:"storage"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Platform: PlatformLocal,
		Account:  DefaultAccount,
		Storage:  storage.DefaultConfig(),
	}
}

// DefaultPath returns the config file consulted when no path is given.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "inboxmatrix", "config.yaml")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "inboxmatrix", "config.yaml")
	}
	return ""
}

// Load resolves the configuration. When path is empty the default path is
// used if it exists; an explicitly given path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Platform = strings.ToLower(strings.TrimSpace(cfg.Platform))
	cfg.Storage.Type = strings.ToLower(strings.TrimSpace(cfg.Storage.Type))
	if cfg.Account == "" {
		cfg.Account = DefaultAccount
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the platform and storage type.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformLocal, PlatformGmail:
	default:
		return fmt.Errorf("invalid platform %q, must be one of: local, gmail", c.Platform)
	}
	switch c.Storage.Type {
	case storage.TypeMemory, storage.TypeFile, storage.TypeSQLite, storage.TypeValkey:
	default:
		return fmt.Errorf("invalid storage type %q, must be one of: memory, file, sqlite, valkey", c.Storage.Type)
	}
	if c.Storage.Type == storage.TypeValkey && c.Storage.Valkey.URL == "" {
		return errors.New("valkey storage requires a URL (valkey.url or VALKEY_URL)")
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
