package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Switcher  SwitcherConfig
	Catalog   CatalogConfig
	Server    ServerConfig
	Bus       BusConfig
	Display   DisplayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// SwitcherConfig holds the timers and policies of the tracker core.
type SwitcherConfig struct {
	RefreshDebounce time.Duration `envconfig:"SWITCHER_REFRESH_DEBOUNCE" default:"150ms"`
	KillTimeout     time.Duration `envconfig:"SWITCHER_KILL_TIMEOUT" default:"3s"`
	LaunchTimeout   time.Duration `envconfig:"SWITCHER_LAUNCH_TIMEOUT" default:"20s"`
	BgKillAuto      bool          `envconfig:"SWITCHER_BGKILL_AUTO" default:"true"`
}

// CatalogConfig holds application descriptor discovery settings.
type CatalogConfig struct {
	Dirs    []string `envconfig:"CATALOG_DIRS" default:"/usr/share/applications/hildon"`
	Pattern string   `envconfig:"CATALOG_PATTERN" default:"**/*.{desktop,yaml,yml,toml}"`
	Watch   bool     `envconfig:"CATALOG_WATCH" default:"true"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Host     string `envconfig:"HTTP_HOST" default:"127.0.0.1"`
	Port     string `envconfig:"HTTP_PORT" default:"8090"`
	Enabled  bool   `envconfig:"HTTP_ENABLED" default:"true"`
	MaxConns int    `envconfig:"HTTP_MAX_CONNS" default:"64"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"HTTP_CORS_ORIGINS" default:"*"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// BusConfig holds signal-bus configuration.
type BusConfig struct {
	Enabled bool   `envconfig:"DBUS_ENABLED" default:"true"`
	Service string `envconfig:"DBUS_SERVICE" default:"com.nokia.tasknav"`
}

// DisplayConfig selects the X display.
type DisplayConfig struct {
	Name string `envconfig:"DISPLAY" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects timer settings the loop cannot honour.
func (c *Config) Validate() error {
	if c.Switcher.RefreshDebounce <= 0 {
		return fmt.Errorf("refresh debounce must be positive, got %s", c.Switcher.RefreshDebounce)
	}
	if c.Switcher.KillTimeout <= 0 {
		return fmt.Errorf("kill timeout must be positive, got %s", c.Switcher.KillTimeout)
	}
	if c.Switcher.LaunchTimeout <= 0 {
		return fmt.Errorf("launch timeout must be positive, got %s", c.Switcher.LaunchTimeout)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Switcher: SwitcherConfig{
			RefreshDebounce: 150 * time.Millisecond,
			KillTimeout:     3 * time.Second,
			LaunchTimeout:   20 * time.Second,
			BgKillAuto:      true,
		},
		Catalog: CatalogConfig{
			Dirs:    []string{"/usr/share/applications/hildon"},
			Pattern: "**/*.{desktop,yaml,yml,toml}",
			Watch:   true,
		},
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     "8090",
			Enabled:  true,
			MaxConns: 64,

			CORSOrigins: []string{"*"},
		},
		Bus: BusConfig{
			Enabled: true,
			Service: "com.nokia.tasknav",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
