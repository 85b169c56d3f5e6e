// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultOutDir      = "public"
	DefaultBackend     = "file"
	DefaultStoreFile   = "assignments.json"
	DefaultSQLiteFile  = "fairway.db"
	DefaultAddr        = "127.0.0.1:8080"
	DefaultCacheTTL    = 5 * time.Minute
	DefaultVerifyDelay = 50 * time.Millisecond
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "50ms", "5s", "1m", or a quoted integer of milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '50ms', '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the fairway configuration.
type Config struct {
	Site   SiteConfig   `toml:"site"`
	Store  StoreConfig  `toml:"store"`
	Theme  ThemeConfig  `toml:"theme"`
	Server ServerConfig `toml:"server"`
}

// SiteConfig holds site manifest and build settings.
type SiteConfig struct {
	Manifest string `toml:"manifest"` // Empty = built-in manifest
	OutDir   string `toml:"out_dir"`
}

// StoreConfig holds assignment storage settings.
type StoreConfig struct {
	Backend       string `toml:"backend"` // file, sqlite, memory
	Path          string `toml:"path"`    // Empty = backend default under the data dir
	CollectionKey string `toml:"collection_key"`
}

// ThemeConfig holds theme application settings.
type ThemeConfig struct {
	VerifyDelay Duration `toml:"verify_delay"` // Negative disables verification
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Addr     string   `toml:"addr"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			OutDir: DefaultOutDir,
		},
		Store: StoreConfig{
			Backend:       DefaultBackend,
			CollectionKey: "fairway.pageThemes",
		},
		Theme: ThemeConfig{
			VerifyDelay: Duration(DefaultVerifyDelay),
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			CacheTTL: Duration(DefaultCacheTTL),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "fairway", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fairway")
}

// StorePath returns the configured store path, or the backend's default
// location under the data directory.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case "sqlite":
		return filepath.Join(DataPath(), DefaultSQLiteFile)
	case "memory":
		return ""
	default:
		return filepath.Join(DataPath(), DefaultStoreFile)
	}
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.CollectionKey == "" {
		return errors.New("store collection_key must not be empty")
	}
	return nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
