package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultDataDir       = ".factorydesk"
	DefaultStoreDriver   = "sqlite"
	DefaultAPIPort       = 8080
	DefaultLanguage      = "en"
	DefaultTheme         = "catppuccin"
	DefaultWatchDebounce = 500 // milliseconds
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Environment variables that override file settings
const (
	EnvDataDir       = "FACTORYDESK_DATA_DIR"
	EnvDatabasePath  = "FACTORYDESK_DB"
	EnvStoreDriver   = "FACTORYDESK_STORE"
	EnvOrdersFile    = "FACTORYDESK_ORDERS_FILE"
	EnvAPIPort       = "FACTORYDESK_PORT"
	EnvAPIKey        = "FACTORYDESK_API_KEY"
	EnvCORSOrigins   = "FACTORYDESK_CORS_ORIGINS"
	EnvLanguage      = "FACTORYDESK_LANG"
	EnvTheme         = "FACTORYDESK_THEME"
	EnvWatchEnabled  = "FACTORYDESK_WATCH"
	EnvWatchDebounce = "FACTORYDESK_WATCH_DEBOUNCE"
	EnvLogLevel      = "FACTORYDESK_LOG_LEVEL"
	EnvLogFormat     = "FACTORYDESK_LOG_FORMAT"
)

// Config holds all application configuration
type Config struct {
	// Paths
	DataDir      string `yaml:"data_dir,omitempty"`
	DatabasePath string `yaml:"database_path,omitempty"`
	OrdersFile   string `yaml:"orders_file,omitempty"`

	// Storage: "sqlite" or "json"
	StoreDriver string `yaml:"store,omitempty"`

	// API server
	APIPort            int      `yaml:"api_port,omitempty"`
	APIKey             string   `yaml:"api_key,omitempty"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins,omitempty"`

	// UI settings
	Language string `yaml:"language,omitempty"`
	Theme    string `yaml:"theme,omitempty"`

	// Watch mode for the orders file
	WatchEnabled  bool `yaml:"watch_enabled,omitempty"`
	WatchDebounce int  `yaml:"watch_debounce,omitempty"` // milliseconds

	// Logging
	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
}

// New creates a new Config with default values
func New() *Config {
	wd, _ := os.Getwd()
	dataDir := filepath.Join(wd, DefaultDataDir)

	return &Config{
		DataDir:            dataDir,
		DatabasePath:       filepath.Join(dataDir, "factorydesk.db"),
		OrdersFile:         filepath.Join(dataDir, "orders.json"),
		StoreDriver:        DefaultStoreDriver,
		APIPort:            DefaultAPIPort,
		CORSAllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		Language:           DefaultLanguage,
		Theme:              DefaultTheme,
		WatchEnabled:       false,
		WatchDebounce:      DefaultWatchDebounce,
		LogLevel:           DefaultLogLevel,
		LogFormat:          DefaultLogFormat,
	}
}

// Load returns the defaults overlaid with the YAML file at path (if it
// exists) and then with FACTORYDESK_* environment variables. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	dataDir := c.DataDir
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// A new data dir moves the default file locations with it
	if c.DataDir != dataDir {
		var file Config
		_ = yaml.Unmarshal(data, &file)
		if file.DatabasePath == "" {
			c.DatabasePath = filepath.Join(c.DataDir, "factorydesk.db")
		}
		if file.OrdersFile == "" {
			c.OrdersFile = filepath.Join(c.DataDir, "orders.json")
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
		c.DatabasePath = filepath.Join(v, "factorydesk.db")
		c.OrdersFile = filepath.Join(v, "orders.json")
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv(EnvOrdersFile); v != "" {
		c.OrdersFile = v
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.StoreDriver = v
	}
	if v := os.Getenv(EnvAPIPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvAPIPort, err)
		}
		c.APIPort = port
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.Theme = v
	}
	if v := os.Getenv(EnvWatchEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatchEnabled, err)
		}
		c.WatchEnabled = enabled
	}
	if v := os.Getenv(EnvWatchDebounce); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatchDebounce, err)
		}
		c.WatchDebounce = ms
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate checks that settings are usable
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "json":
	default:
		return fmt.Errorf("unknown store %q: must be sqlite or json", c.StoreDriver)
	}
	switch c.Language {
	case "en", "ar":
	default:
		return fmt.Errorf("unsupported language %q: must be en or ar", c.Language)
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("api port %d out of range", c.APIPort)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// StorePath returns the path the configured store driver opens
func (c *Config) StorePath() string {
	if c.StoreDriver == "json" {
		return c.OrdersFile
	}
	return c.DatabasePath
}

// EnsureDataDir creates the data directory
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
