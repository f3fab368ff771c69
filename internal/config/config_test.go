package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, time.RFC3339, cfg.Logging.TimeFormat)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// PubMed defaults
	assert.Equal(t, "https://eutils.ncbi.nlm.nih.gov/entrez/eutils", cfg.PubMed.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.PubMed.Timeout)
	assert.Equal(t, 3.0, cfg.PubMed.RateLimit)
	assert.Equal(t, 3, cfg.PubMed.BurstSize)
	assert.Equal(t, 0, cfg.PubMed.MaxRetries)
	assert.Empty(t, cfg.PubMed.APIKey)

	// Search defaults
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables with SCISEARCH prefix
	t.Setenv("SCISEARCH_SERVER_HTTP_PORT", "8888")
	t.Setenv("SCISEARCH_LOGGING_LEVEL", "debug")
	t.Setenv("SCISEARCH_PUBMED_BASE_URL", "http://localhost:9999/eutils")
	t.Setenv("SCISEARCH_PUBMED_TIMEOUT", "5s")
	t.Setenv("SCISEARCH_PUBMED_RATE_LIMIT", "10")
	t.Setenv("SCISEARCH_PUBMED_EMAIL", "ops@example.test")
	t.Setenv("SCISEARCH_SEARCH_MAX_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://localhost:9999/eutils", cfg.PubMed.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.PubMed.Timeout)
	assert.Equal(t, 10.0, cfg.PubMed.RateLimit)
	assert.Equal(t, "ops@example.test", cfg.PubMed.Email)
	assert.Equal(t, 50, cfg.Search.MaxLimit)
}

func TestLoad_APIKeyFromEnvOnly(t *testing.T) {
	clearEnvVars(t)

	dir := t.TempDir()
	yaml := "pubmed:\n  api_key: from-file\n  tool: scisearch\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Chdir(dir)

	t.Run("file value is ignored", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.PubMed.APIKey)
		assert.Equal(t, "scisearch", cfg.PubMed.Tool)
	})

	t.Run("env value is used", func(t *testing.T) {
		t.Setenv("SCISEARCH_PUBMED_API_KEY", "ncbi-key-test")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "ncbi-key-test", cfg.PubMed.APIKey)
	})
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SCISEARCH_SEARCH_DEFAULT_LIMIT", "500")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name: "HTTP port zero",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 0
			},
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name: "HTTP port too high",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name: "metrics port invalid",
			modifyFunc: func(c *Config) {
				c.Server.MetricsPort = -5
			},
			expectedErr: "invalid metrics port: -5",
		},
		{
			name: "metrics port clashes with HTTP port",
			modifyFunc: func(c *Config) {
				c.Server.MetricsPort = c.Server.HTTPPort
			},
			expectedErr: "metrics port must differ from HTTP port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "INFO"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = level
			assert.NoError(t, cfg.Validate())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level: verbose")
	})
}

func TestValidate_PubMedConfig(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name:        "empty base url",
			modifyFunc:  func(c *Config) { c.PubMed.BaseURL = "" },
			expectedErr: "invalid pubmed base_url",
		},
		{
			name:        "relative base url",
			modifyFunc:  func(c *Config) { c.PubMed.BaseURL = "eutils/entrez" },
			expectedErr: "invalid pubmed base_url",
		},
		{
			name:        "zero timeout",
			modifyFunc:  func(c *Config) { c.PubMed.Timeout = 0 },
			expectedErr: "pubmed timeout must be positive",
		},
		{
			name:        "zero rate",
			modifyFunc:  func(c *Config) { c.PubMed.RateLimit = 0 },
			expectedErr: "pubmed rate_limit must be positive",
		},
		{
			name:        "zero burst",
			modifyFunc:  func(c *Config) { c.PubMed.BurstSize = 0 },
			expectedErr: "pubmed burst_size must be positive",
		},
		{
			name:        "negative retries",
			modifyFunc:  func(c *Config) { c.PubMed.MaxRetries = -1 },
			expectedErr: "pubmed max_retries must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_SearchConfig(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name:        "zero default limit",
			modifyFunc:  func(c *Config) { c.Search.DefaultLimit = 0 },
			expectedErr: "search default_limit must be positive",
		},
		{
			name:        "zero max limit",
			modifyFunc:  func(c *Config) { c.Search.MaxLimit = 0 },
			expectedErr: "search max_limit must be positive",
		},
		{
			name:        "default above max",
			modifyFunc:  func(c *Config) { c.Search.DefaultLimit = 200 },
			expectedErr: "search default_limit (200) must be <= max_limit (100)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{
		Host:        "127.0.0.1",
		HTTPPort:    8080,
		MetricsPort: 9091,
	}
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

// clearEnvVars removes all SCISEARCH_ prefixed environment variables for the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		PubMed: PubMedConfig{
			BaseURL:   "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Timeout:   30 * time.Second,
			RateLimit: 3,
			BurstSize: 3,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
	}
}
