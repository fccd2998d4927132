package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "CUEDECK_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Session   SessionConfig   `yaml:"session" toml:"session"`
	Catalog   CatalogConfig   `yaml:"catalog" toml:"catalog"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"CUEDECK_PORT" yaml:"port" toml:"port"`
	Host            string        `envconfig:"CUEDECK_HOST" yaml:"host" toml:"host"`
	AllowedOrigins  []string      `envconfig:"CUEDECK_ALLOWED_ORIGINS" yaml:"allowed_origins" toml:"allowed_origins"`
	ShutdownTimeout time.Duration `envconfig:"CUEDECK_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// StorageConfig holds on-disk layout configuration.
type StorageConfig struct {
	UserDataDir   string `envconfig:"CUEDECK_USER_DATA_DIR" yaml:"user_data_dir" toml:"user_data_dir"`
	LegacyStore   string `envconfig:"CUEDECK_LEGACY_STORE" yaml:"legacy_store" toml:"legacy_store"`
	ActiveProfile string `envconfig:"CUEDECK_ACTIVE_PROFILE" yaml:"active_profile" toml:"active_profile"`
	WatchRegistry bool   `envconfig:"CUEDECK_WATCH_REGISTRY" yaml:"watch_registry" toml:"watch_registry"`
}

// SessionConfig holds session persistence configuration.
type SessionConfig struct {
	QuitTimeout       time.Duration `envconfig:"CUEDECK_SESSION_QUIT_TIMEOUT" yaml:"quit_timeout" toml:"quit_timeout"`
	LookupConcurrency int           `envconfig:"CUEDECK_SESSION_LOOKUP_CONCURRENCY" yaml:"lookup_concurrency" toml:"lookup_concurrency"`
	AutosaveInterval  time.Duration `envconfig:"CUEDECK_SESSION_AUTOSAVE_INTERVAL" yaml:"autosave_interval" toml:"autosave_interval"`
}

// CatalogConfig selects and configures the item catalog.
type CatalogConfig struct {
	Driver  string        `envconfig:"CUEDECK_CATALOG_DRIVER" yaml:"driver" toml:"driver"` // "memory", "sqlite", "remote"
	DBPath  string        `envconfig:"CUEDECK_CATALOG_DB" yaml:"db_path" toml:"db_path"`
	URL     string        `envconfig:"CUEDECK_CATALOG_URL" yaml:"url" toml:"url"`
	Timeout time.Duration `envconfig:"CUEDECK_CATALOG_TIMEOUT" yaml:"timeout" toml:"timeout"`
	RPS     int           `envconfig:"CUEDECK_CATALOG_RPS" yaml:"rps" toml:"rps"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"CUEDECK_LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"CUEDECK_LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"CUEDECK_RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"CUEDECK_RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"CUEDECK_RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	Global            bool `envconfig:"CUEDECK_RATE_LIMIT_GLOBAL" yaml:"global" toml:"global"` // one bucket for all clients
}

// Load builds configuration from defaults, then the optional file named by
// CUEDECK_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile builds configuration from defaults and a single config file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Storage.UserDataDir == "" {
		return fmt.Errorf("storage.user_data_dir must be set")
	}
	switch c.Catalog.Driver {
	case "memory", "sqlite", "remote":
	default:
		return fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	if c.Catalog.Driver == "remote" && c.Catalog.URL == "" {
		return fmt.Errorf("catalog.url is required for the remote driver")
	}
	if c.Session.QuitTimeout <= 0 {
		return fmt.Errorf("session.quit_timeout must be positive")
	}
	return nil
}

// LegacyStorePath returns the configured legacy store or the default
// location inside the user data directory.
func (c *Config) LegacyStorePath() string {
	if c.Storage.LegacyStore != "" {
		return c.Storage.LegacyStore
	}
	return filepath.Join(c.Storage.UserDataDir, "config.json")
}

// CatalogDBPath returns the SQLite catalog path, defaulting into user data.
func (c *Config) CatalogDBPath() string {
	if c.Catalog.DBPath != "" {
		return c.Catalog.DBPath
	}
	return filepath.Join(c.Storage.UserDataDir, "catalog.db")
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "127.0.0.1",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			UserDataDir:   defaultUserDataDir(),
			WatchRegistry: true,
		},
		Session: SessionConfig{
			QuitTimeout:       5 * time.Second,
			LookupConcurrency: 8,
		},
		Catalog: CatalogConfig{
			Driver:  "memory",
			Timeout: 5 * time.Second,
			RPS:     20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

func defaultUserDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "CueDeck")
}
