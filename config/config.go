package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pevans/wikifeed/discovery"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/wiki"
)

// APIConfig configures the Wikipedia client.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	// Requests per second; 0 disables pacing
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// DiscoveryConfig configures title discovery.
type DiscoveryConfig struct {
	BatchSize    int           `yaml:"batch_size" json:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff      time.Duration `yaml:"backoff" json:"backoff"`
	NearbyRadius string        `yaml:"nearby_radius" json:"nearby_radius"`
}

// AcquisitionConfig configures article assembly.
type AcquisitionConfig struct {
	IncludeSections bool `yaml:"include_sections" json:"include_sections"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Path of the SQLite history database; empty disables history
	HistoryDSN string `yaml:"history_dsn" json:"history_dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Config is the complete wikifeed configuration.
type Config struct {
	API         APIConfig             `yaml:"api" json:"api"`
	Discovery   DiscoveryConfig       `yaml:"discovery" json:"discovery"`
	Modes       []feedmode.Definition `yaml:"modes" json:"modes,omitempty"`
	Acquisition AcquisitionConfig     `yaml:"acquisition" json:"acquisition"`
	Storage     StorageConfig         `yaml:"storage" json:"storage"`
	Server      ServerConfig          `yaml:"server" json:"server"`
	Log         LogConfig             `yaml:"log" json:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := discovery.DefaultConfig()

	return &Config{
		API: APIConfig{
			BaseURL:   wiki.DefaultBaseURL,
			UserAgent: wiki.DefaultUserAgent,
			Timeout:   wiki.DefaultTimeout,
			RateLimit: 5,
			Burst:     5,
		},
		Discovery: DiscoveryConfig{
			BatchSize:    d.BatchSize,
			MaxAttempts:  d.MaxAttempts,
			Backoff:      d.Backoff,
			NearbyRadius: d.NearbyRadius,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load builds the configuration from defaults, the YAML file at path (the
// default path when empty) and WIKIFEED_* environment variables, in that
// order, then validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFiles loads .env.local and then .env from the working directory,
// or only ENV_FILE when that is set. Missing files are ignored. Variables
// already in the environment are never overwritten.
func LoadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	return nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("WIKIFEED_BASE_URL", &c.API.BaseURL)
	str("WIKIFEED_USER_AGENT", &c.API.UserAgent)
	str("WIKIFEED_HISTORY_DSN", &c.Storage.HistoryDSN)
	str("WIKIFEED_ADDR", &c.Server.Addr)
	str("WIKIFEED_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("WIKIFEED_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ValidationError{Field: "WIKIFEED_TIMEOUT", Message: "must be a duration (e.g. 10s)"}
		}
		c.API.Timeout = d
	}

	if v, ok := lookup("WIKIFEED_RATE_LIMIT"); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ValidationError{Field: "WIKIFEED_RATE_LIMIT", Message: "must be a number"}
		}
		c.API.RateLimit = rps
	}

	if v, ok := lookup("WIKIFEED_INCLUDE_SECTIONS"); ok && v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: "WIKIFEED_INCLUDE_SECTIONS", Message: "must be true or false"}
		}
		c.Acquisition.IncludeSections = include
	}

	return nil
}

// Validate checks the configuration for values the rest of the program
// cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, &ValidationError{Field: "api.base_url", Message: "must be an absolute http(s) URL"})
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		errs = append(errs, &ValidationError{Field: "api.user_agent", Message: "is required"})
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, &ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, &ValidationError{Field: "api.rate_limit", Message: "must not be negative"})
	}
	if c.Discovery.BatchSize < 1 || c.Discovery.BatchSize > 500 {
		errs = append(errs, &ValidationError{Field: "discovery.batch_size", Message: "must be between 1 and 500"})
	}
	if c.Discovery.MaxAttempts < 1 {
		errs = append(errs, &ValidationError{Field: "discovery.max_attempts", Message: "must be at least 1"})
	}
	if c.Discovery.Backoff < 0 {
		errs = append(errs, &ValidationError{Field: "discovery.backoff", Message: "must not be negative"})
	}
	if strings.TrimSpace(c.Discovery.NearbyRadius) == "" {
		errs = append(errs, &ValidationError{Field: "discovery.nearby_radius", Message: "is required"})
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, &ValidationError{Field: "server.addr", Message: "is required"})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{Field: "log.level", Message: "must be one of: debug, info, warn, error"})
	}

	if _, err := c.Registry(); err != nil {
		errs = append(errs, &ValidationError{Field: "modes", Message: err.Error()})
	}

	return errors.Join(errs...)
}

// Registry builds the mode registry: the built-in modes plus Modes.
func (c *Config) Registry() (*feedmode.Registry, error) {
	return feedmode.NewRegistry(c.Modes...)
}

// DiscoveryOptions converts the discovery section for discovery.NewBuffer.
func (c *Config) DiscoveryOptions() *discovery.Config {
	return &discovery.Config{
		BatchSize:    c.Discovery.BatchSize,
		MaxAttempts:  c.Discovery.MaxAttempts,
		Backoff:      c.Discovery.Backoff,
		NearbyRadius: c.Discovery.NearbyRadius,
	}
}
