package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

// EnvPrefix prefixes every environment override, e.g. HOMESHOP_API_BASE_URL.
const EnvPrefix = "HOMESHOP_"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	API      APIConfig      `yaml:"api" envPrefix:"API_"`
	Schedule ScheduleConfig `yaml:"schedule" envPrefix:"SCHEDULE_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" env:"MAX_HEADER_BYTES"`
	CORSOrigins    []string      `yaml:"cors_origins" env:"CORS_ORIGINS"`
	TLS            TLSConfig     `yaml:"tls" envPrefix:"TLS_"`
}

// TLSConfig contains TLS settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"KEY_FILE"`
}

// APIConfig contains schedule API connection settings
type APIConfig struct {
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	User     string        `yaml:"user" env:"USER"`
	Password string        `yaml:"password" env:"PASSWORD"`
}

// ScheduleConfig contains classification and polling settings
type ScheduleConfig struct {
	// TimeZone is the display zone; only Asia/Seoul is expected in practice.
	TimeZone       string        `yaml:"time_zone" env:"TIME_ZONE"`
	TickInterval   time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	CacheExpiry    time.Duration `yaml:"cache_expiry" env:"CACHE_EXPIRY"`
	ChannelsExpiry time.Duration `yaml:"channels_expiry" env:"CHANNELS_EXPIRY"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	Enabled      bool     `yaml:"enabled" env:"ENABLED"`
	AdminUser    string   `yaml:"admin_user" env:"ADMIN_USER"`
	AdminPass    string   `yaml:"admin_pass" env:"ADMIN_PASS"`
	GuestEnabled bool     `yaml:"guest_enabled" env:"GUEST_ENABLED"`
	GuestUser    string   `yaml:"guest_user" env:"GUEST_USER"`
	GuestPass    string   `yaml:"guest_pass" env:"GUEST_PASS"`
	LocalNets    []string `yaml:"local_nets" env:"LOCAL_NETS"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
			CORSOrigins:    []string{"http://localhost:3000"},
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Schedule: ScheduleConfig{
			TimeZone:       "Asia/Seoul",
			TickInterval:   time.Minute,
			CacheExpiry:    5 * time.Minute,
			ChannelsExpiry: 30 * time.Minute,
		},
		Auth: AuthConfig{
			Enabled:   true,
			AdminUser: "admin",
			AdminPass: "admin",
			LocalNets: []string{},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadDotEnv loads environment variables from .env files. A missing file is
// not an error; with no paths, ".env" is used.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from a YAML file and applies HOMESHOP_*
// environment overrides on top
func Load(path string) (*Config, error) {
	cfg := Default()

	// If config file exists, load it
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err):
			// Use defaults if file doesn't exist
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("TLS cert file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key file is required when TLS is enabled")
		}
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid API timeout: %s", c.API.Timeout)
	}

	if c.Schedule.TickInterval < time.Second {
		return fmt.Errorf("invalid tick interval: %s (must be at least 1s)", c.Schedule.TickInterval)
	}
	if c.Schedule.CacheExpiry < 0 || c.Schedule.ChannelsExpiry < 0 {
		return fmt.Errorf("cache expiry must not be negative")
	}

	if c.Auth.Enabled {
		if c.Auth.AdminUser == "" {
			return fmt.Errorf("admin user is required when auth is enabled")
		}
		if c.Auth.AdminPass == "" {
			return fmt.Errorf("admin password is required when auth is enabled")
		}
		if c.Auth.GuestEnabled && (c.Auth.GuestUser == "" || c.Auth.GuestPass == "") {
			return fmt.Errorf("guest user and password are required when guest access is enabled")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q (must be debug, info, warn, or error)", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
		// ok
	default:
		return fmt.Errorf("invalid log.format: %q (must be json or text)", c.Log.Format)
	}

	return nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
