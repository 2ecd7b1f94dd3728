package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Cases for DefaultConfig
// ============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, "env", cfg.SecretsProvider)
	assert.Equal(t, 24*time.Hour, cfg.CSRFTokenMaxAge)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "memory", cfg.RateLimitStoreType)
	assert.Equal(t, 60, cfg.CacheMaxAge)
	assert.Equal(t, "private", cfg.CacheScope)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

// ============================================================================
// Test Cases for Validate
// ============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid http port",
			modify:  func(c *Config) { c.HTTPPort = 0 },
			wantErr: "HTTPPort",
		},
		{
			name:    "invalid metrics port",
			modify:  func(c *Config) { c.MetricsPort = 70000 },
			wantErr: "MetricsPort",
		},
		{
			name:    "zero read timeout",
			modify:  func(c *Config) { c.ReadTimeout = 0 },
			wantErr: "ReadTimeout",
		},
		{
			name:    "missing csrf secret name",
			modify:  func(c *Config) { c.CSRFSecretName = "" },
			wantErr: "CSRFSecretName",
		},
		{
			name:    "zero csrf token max age",
			modify:  func(c *Config) { c.CSRFTokenMaxAge = 0 },
			wantErr: "CSRFTokenMaxAge",
		},
		{
			name:    "unknown secrets provider",
			modify:  func(c *Config) { c.SecretsProvider = "consul" },
			wantErr: "invalid SecretsProvider",
		},
		{
			name: "file provider without path",
			modify: func(c *Config) {
				c.SecretsProvider = "file"
				c.SecretsFilePath = ""
			},
			wantErr: "SecretsFilePath",
		},
		{
			name: "vault provider without address",
			modify: func(c *Config) {
				c.SecretsProvider = "vault"
				c.VaultAddress = ""
			},
			wantErr: "VaultAddress",
		},
		{
			name:    "unknown rate limit store",
			modify:  func(c *Config) { c.RateLimitStoreType = "memcached" },
			wantErr: "invalid RateLimitStoreType",
		},
		{
			name: "redis store without address",
			modify: func(c *Config) {
				c.RateLimitStoreType = "redis"
				c.RedisAddress = ""
			},
			wantErr: "RedisAddress",
		},
		{
			name:    "zero rate limit requests",
			modify:  func(c *Config) { c.RateLimitRequests = 0 },
			wantErr: "RateLimitRequests",
		},
		{
			name:    "zero cache max age",
			modify:  func(c *Config) { c.CacheMaxAge = 0 },
			wantErr: "CacheMaxAge",
		},
		{
			name:    "unknown cache scope",
			modify:  func(c *Config) { c.CacheScope = "shared" },
			wantErr: "invalid CacheScope",
		},
		{
			name:    "zero breaker max failures",
			modify:  func(c *Config) { c.BreakerMaxFailures = 0 },
			wantErr: "BreakerMaxFailures",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "invalid LogLevel",
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "invalid LogFormat",
		},
		{
			name:    "bogus log output",
			modify:  func(c *Config) { c.LogOutput = "syslog" },
			wantErr: "invalid LogOutput",
		},
		{
			name: "tracing without endpoint",
			modify: func(c *Config) {
				c.TracingEnabled = true
				c.OTLPEndpoint = ""
			},
			wantErr: "OTLPEndpoint",
		},
		{
			name: "sample rate out of range",
			modify: func(c *Config) {
				c.TracingEnabled = true
				c.TracingSampleRate = 1.5
			},
			wantErr: "TracingSampleRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitEnabled = false
	cfg.RateLimitRequests = 0
	cfg.BreakerEnabled = false
	cfg.BreakerMaxFailures = 0

	assert.NoError(t, cfg.Validate())
}

func TestValidate_FileLogOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogOutput = "/var/log/omnichat.log"
	assert.NoError(t, cfg.Validate())
}

// ============================================================================
// Test Cases for String
// ============================================================================

func TestString_OmitsSensitiveData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisPassword = "hunter2"

	s := cfg.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "HTTPPort: 8080")
}
