// Package config provides configuration management for the scientist search service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SCISEARCH"

// Config holds all configuration for the scientist search service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// PubMed contains NCBI E-utilities client settings.
	PubMed PubMedConfig `mapstructure:"pubmed"`
	// Search contains paging limits for inbound searches.
	Search SearchConfig `mapstructure:"search"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// PubMedConfig holds configuration for the NCBI E-utilities API.
type PubMedConfig struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the NCBI API key (loaded from SCISEARCH_PUBMED_API_KEY only).
	APIKey string `mapstructure:"-"`
	// Tool is the optional tool name reported to NCBI.
	Tool string `mapstructure:"tool"`
	// Email is the optional contact address reported to NCBI.
	Email string `mapstructure:"email"`
	// Timeout bounds each upstream request.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the rate limiter burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries is the number of extra attempts on transient failures (default: 0).
	MaxRetries int `mapstructure:"max_retries"`
}

// SearchConfig holds paging limits for inbound searches.
type SearchConfig struct {
	// DefaultLimit is the page size used when the caller gives none.
	DefaultLimit int `mapstructure:"default_limit"`
	// MaxLimit is the largest page size a caller may request.
	MaxLimit int `mapstructure:"max_limit"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scientist-search-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.PubMed.APIKey = os.Getenv(EnvPrefix + "_PUBMED_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// PubMed defaults
	// The API key is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.timeout", "30s")
	v.SetDefault("pubmed.rate_limit", 3.0) // NCBI allows 3 req/sec without an API key
	v.SetDefault("pubmed.burst_size", 3)
	v.SetDefault("pubmed.max_retries", 0)
	v.SetDefault("pubmed.tool", "")
	v.SetDefault("pubmed.email", "")

	// Search defaults
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 100)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate PubMed config
	u, err := url.Parse(c.PubMed.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid pubmed base_url: %q", c.PubMed.BaseURL)
	}
	if c.PubMed.Timeout <= 0 {
		return fmt.Errorf("pubmed timeout must be positive")
	}
	if c.PubMed.RateLimit <= 0 {
		return fmt.Errorf("pubmed rate_limit must be positive")
	}
	if c.PubMed.BurstSize <= 0 {
		return fmt.Errorf("pubmed burst_size must be positive")
	}
	if c.PubMed.MaxRetries < 0 {
		return fmt.Errorf("pubmed max_retries must not be negative")
	}

	// Validate search limits
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search default_limit must be positive")
	}
	if c.Search.MaxLimit <= 0 {
		return fmt.Errorf("search max_limit must be positive")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search default_limit (%d) must be <= max_limit (%d)", c.Search.DefaultLimit, c.Search.MaxLimit)
	}

	return nil
}
