// Package config provides configuration management for the omnichat server.
// It supports loading configuration from a YAML file and environment
// variables, with environment variables taking precedence.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration settings for the omnichat server.
type Config struct {
	// Server settings
	HTTPPort    int `json:"httpPort" yaml:"httpPort"`
	MetricsPort int `json:"metricsPort" yaml:"metricsPort"`

	// Server timeouts
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`

	// CSRF settings
	CSRFSecretName  string        `json:"csrfSecretName" yaml:"csrfSecretName"`
	CSRFTokenMaxAge time.Duration `json:"csrfTokenMaxAge" yaml:"csrfTokenMaxAge"`

	// Secrets provider settings
	SecretsProvider  string `json:"secretsProvider" yaml:"secretsProvider"` // env, file, vault
	SecretsFilePath  string `json:"secretsFilePath" yaml:"secretsFilePath"`
	SecretsEnvPrefix string `json:"secretsEnvPrefix" yaml:"secretsEnvPrefix"`

	// Vault settings
	VaultAddress    string        `json:"vaultAddress" yaml:"vaultAddress"`
	VaultMountPoint string        `json:"vaultMountPoint" yaml:"vaultMountPoint"`
	VaultSecretPath string        `json:"vaultSecretPath" yaml:"vaultSecretPath"`
	VaultTimeout    time.Duration `json:"vaultTimeout" yaml:"vaultTimeout"`

	// Rate limiting
	RateLimitEnabled   bool          `json:"rateLimitEnabled" yaml:"rateLimitEnabled"`
	RateLimitRequests  int           `json:"rateLimitRequests" yaml:"rateLimitRequests"`
	RateLimitWindow    time.Duration `json:"rateLimitWindow" yaml:"rateLimitWindow"`
	RateLimitStoreType string        `json:"rateLimitStoreType" yaml:"rateLimitStoreType"` // memory, redis
	RedisAddress       string        `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword      string        `json:"redisPassword" yaml:"redisPassword"`
	RedisDB            int           `json:"redisDB" yaml:"redisDB"`

	// Response caching
	CacheMaxAge         int    `json:"cacheMaxAge" yaml:"cacheMaxAge"` // seconds
	CacheScope          string `json:"cacheScope" yaml:"cacheScope"`   // private, public
	CacheNoTransform    bool   `json:"cacheNoTransform" yaml:"cacheNoTransform"`
	CacheMustRevalidate bool   `json:"cacheMustRevalidate" yaml:"cacheMustRevalidate"`

	// Provider circuit breaker
	BreakerEnabled     bool          `json:"breakerEnabled" yaml:"breakerEnabled"`
	BreakerMaxFailures int           `json:"breakerMaxFailures" yaml:"breakerMaxFailures"`
	BreakerTimeout     time.Duration `json:"breakerTimeout" yaml:"breakerTimeout"`

	// Observability - Logging
	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat"`
	LogOutput string `json:"logOutput" yaml:"logOutput"`

	// Observability - Tracing
	TracingEnabled    bool    `json:"tracingEnabled" yaml:"tracingEnabled"`
	OTLPEndpoint      string  `json:"otlpEndpoint" yaml:"otlpEndpoint"`
	TracingSampleRate float64 `json:"tracingSampleRate" yaml:"tracingSampleRate"`
	ServiceName       string  `json:"serviceName" yaml:"serviceName"`
	ServiceVersion    string  `json:"serviceVersion" yaml:"serviceVersion"`
	TracingInsecure   bool    `json:"tracingInsecure" yaml:"tracingInsecure"`

	// Observability - Metrics
	MetricsEnabled bool   `json:"metricsEnabled" yaml:"metricsEnabled"`
	MetricsPath    string `json:"metricsPath" yaml:"metricsPath"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		// Server settings
		HTTPPort:    8080,
		MetricsPort: 9091,

		// Server timeouts
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,

		// CSRF settings
		CSRFSecretName:  "csrf-signing-secret",
		CSRFTokenMaxAge: 24 * time.Hour,

		// Secrets provider settings
		SecretsProvider:  "env",
		SecretsFilePath:  "/etc/omnichat/secrets",
		SecretsEnvPrefix: "OMNICHAT_SECRET_",

		// Vault settings
		VaultAddress:    "http://localhost:8200",
		VaultMountPoint: "secret",
		VaultSecretPath: "omnichat",
		VaultTimeout:    30 * time.Second,

		// Rate limiting
		RateLimitEnabled:   true,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		RateLimitStoreType: "memory",
		RedisAddress:       "localhost:6379",
		RedisPassword:      "",
		RedisDB:            0,

		// Response caching
		CacheMaxAge:         60,
		CacheScope:          "private",
		CacheNoTransform:    false,
		CacheMustRevalidate: false,

		// Provider circuit breaker
		BreakerEnabled:     true,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,

		// Observability - Logging
		LogLevel:  "info",
		LogFormat: "json",
		LogOutput: "stdout",

		// Observability - Tracing
		TracingEnabled:    false,
		OTLPEndpoint:      "localhost:4317",
		TracingSampleRate: 1.0,
		ServiceName:       "omnichat",
		ServiceVersion:    "1.0.0",
		TracingInsecure:   true,

		// Observability - Metrics
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if err := validatePort(c.HTTPPort, "HTTPPort"); err != nil {
		return err
	}
	if err := validatePort(c.MetricsPort, "MetricsPort"); err != nil {
		return err
	}

	// Validate timeouts
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("IdleTimeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("ShutdownTimeout must be positive")
	}

	// Validate CSRF settings
	if c.CSRFSecretName == "" {
		return fmt.Errorf("CSRFSecretName is required")
	}
	if c.CSRFTokenMaxAge <= 0 {
		return fmt.Errorf("CSRFTokenMaxAge must be positive")
	}

	// Validate secrets provider
	validProviders := map[string]bool{
		"env":   true,
		"file":  true,
		"vault": true,
	}
	if !validProviders[c.SecretsProvider] {
		return fmt.Errorf("invalid SecretsProvider: %s, must be one of: env, file, vault", c.SecretsProvider)
	}
	if c.SecretsProvider == "file" && c.SecretsFilePath == "" {
		return fmt.Errorf("SecretsFilePath is required when SecretsProvider is file")
	}
	if c.SecretsProvider == "vault" {
		if c.VaultAddress == "" {
			return fmt.Errorf("VaultAddress is required when SecretsProvider is vault")
		}
		if c.VaultTimeout <= 0 {
			return fmt.Errorf("VaultTimeout must be positive")
		}
	}

	// Validate rate limiting settings
	if c.RateLimitEnabled {
		validStoreTypes := map[string]bool{
			"memory": true,
			"redis":  true,
		}
		if !validStoreTypes[c.RateLimitStoreType] {
			return fmt.Errorf("invalid RateLimitStoreType: %s, must be one of: memory, redis", c.RateLimitStoreType)
		}
		if c.RateLimitStoreType == "redis" && c.RedisAddress == "" {
			return fmt.Errorf("RedisAddress is required when rate limit store type is redis")
		}
		if c.RateLimitRequests <= 0 {
			return fmt.Errorf("RateLimitRequests must be positive")
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RateLimitWindow must be positive")
		}
	}

	// Validate cache settings
	if c.CacheMaxAge <= 0 {
		return fmt.Errorf("CacheMaxAge must be positive")
	}
	validScopes := map[string]bool{
		"private": true,
		"public":  true,
	}
	if !validScopes[c.CacheScope] {
		return fmt.Errorf("invalid CacheScope: %s, must be one of: private, public", c.CacheScope)
	}

	// Validate circuit breaker settings
	if c.BreakerEnabled {
		if c.BreakerMaxFailures <= 0 {
			return fmt.Errorf("BreakerMaxFailures must be positive")
		}
		if c.BreakerTimeout <= 0 {
			return fmt.Errorf("BreakerTimeout must be positive")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid LogLevel: %s, must be one of: debug, info, warn, error", c.LogLevel)
	}

	// Validate log format
	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid LogFormat: %s, must be one of: json, console", c.LogFormat)
	}

	// Validate log output
	validLogOutputs := map[string]bool{
		"stdout": true,
		"stderr": true,
	}
	if c.LogOutput != "" && !validLogOutputs[c.LogOutput] {
		// Allow file paths as well
		if c.LogOutput[0] != '/' && c.LogOutput[0] != '.' {
			return fmt.Errorf("invalid LogOutput: %s, must be stdout, stderr, or a file path", c.LogOutput)
		}
	}

	// Validate tracing settings
	if c.TracingEnabled {
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTLPEndpoint is required when tracing is enabled")
		}
		if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
			return fmt.Errorf("TracingSampleRate must be between 0.0 and 1.0")
		}
	}

	return nil
}

// validatePort validates that a port number is within valid range.
func validatePort(port int, name string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// String returns a string representation of the config (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{HTTPPort: %d, MetricsPort: %d, SecretsProvider: %s, RateLimitEnabled: %t, RateLimitStoreType: %s, CacheMaxAge: %d, LogLevel: %s, TracingEnabled: %t}",
		c.HTTPPort, c.MetricsPort, c.SecretsProvider, c.RateLimitEnabled, c.RateLimitStoreType, c.CacheMaxAge, c.LogLevel, c.TracingEnabled,
	)
}
