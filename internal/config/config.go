// Package config handles reading and writing the habit-garden config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/session"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Environment overrides. The API base URL uses api.BaseURLEnv.
const (
	AddrEnv        = "HABIT_GARDEN_ADDR"
	DatabaseURLEnv = "HABIT_GARDEN_DATABASE_URL"
	LogLevelEnv    = "HABIT_GARDEN_LOG_LEVEL"
)

const (
	configDirName  = "habit-garden"
	configFileName = "config.yaml"
)

var (
	// ErrInvalidBackend is returned for an unknown storage backend.
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrMissingDatabaseURL is returned when the postgres backend has no URL.
	ErrMissingDatabaseURL = errors.New("postgres backend requires storage.database_url")

	// ErrInvalidLog is returned for an unknown log level or format.
	ErrInvalidLog = errors.New("invalid log settings")
)

// Config is the top-level structure of config.yaml.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig points the client at the habit API.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ServerConfig controls the local web UI.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // "file" | "postgres" | "memory"
	Path        string `yaml:"path"`    // file backend; empty means the default state path
	DatabaseURL string `yaml:"database_url"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" | "json"
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        api.DefaultBaseURL,
			TimeoutSeconds: int(api.DefaultTimeout / time.Second),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns ~/.config/habit-garden/config.yaml (or the platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// ReadConfig reads the config file at path. Fields missing from the file
// keep their default values.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// WriteConfig writes cfg to path, creating the parent directory if needed.
// The file may hold a database URL, so it is only readable by the owner.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads the config at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := ReadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(api.BaseURLEnv); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(AddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(DatabaseURLEnv); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv(LogLevelEnv); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the config and normalizes the API base URL.
func (c *Config) Validate() error {
	apiCfg := c.APIConfig()
	if err := apiCfg.Validate(); err != nil {
		return err
	}
	c.API.BaseURL = apiCfg.BaseURL

	switch c.Storage.Backend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Storage.Backend)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: level %q", ErrInvalidLog, c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("%w: format %q", ErrInvalidLog, c.Log.Format)
	}
	return nil
}

// APIConfig returns the API client configuration.
func (c *Config) APIConfig() *api.Config {
	return &api.Config{
		BaseURL: c.API.BaseURL,
		Timeout: time.Duration(c.API.TimeoutSeconds) * time.Second,
	}
}

// StatePath returns the file backend path.
func (c *Config) StatePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return session.DefaultStatePath()
}
