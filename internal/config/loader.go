package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// fileConfig mirrors Config for YAML files. Fields are pointers so that
// absent keys keep their defaults, and durations accept human-readable
// strings like "30s".
type fileConfig struct {
	HTTPPort    *int `yaml:"httpPort"`
	MetricsPort *int `yaml:"metricsPort"`

	ReadTimeout     *Duration `yaml:"readTimeout"`
	WriteTimeout    *Duration `yaml:"writeTimeout"`
	IdleTimeout     *Duration `yaml:"idleTimeout"`
	ShutdownTimeout *Duration `yaml:"shutdownTimeout"`

	CSRFSecretName  *string   `yaml:"csrfSecretName"`
	CSRFTokenMaxAge *Duration `yaml:"csrfTokenMaxAge"`

	SecretsProvider  *string `yaml:"secretsProvider"`
	SecretsFilePath  *string `yaml:"secretsFilePath"`
	SecretsEnvPrefix *string `yaml:"secretsEnvPrefix"`

	VaultAddress    *string   `yaml:"vaultAddress"`
	VaultMountPoint *string   `yaml:"vaultMountPoint"`
	VaultSecretPath *string   `yaml:"vaultSecretPath"`
	VaultTimeout    *Duration `yaml:"vaultTimeout"`

	RateLimitEnabled   *bool     `yaml:"rateLimitEnabled"`
	RateLimitRequests  *int      `yaml:"rateLimitRequests"`
	RateLimitWindow    *Duration `yaml:"rateLimitWindow"`
	RateLimitStoreType *string   `yaml:"rateLimitStoreType"`
	RedisAddress       *string   `yaml:"redisAddress"`
	RedisPassword      *string   `yaml:"redisPassword"`
	RedisDB            *int      `yaml:"redisDB"`

	CacheMaxAge         *int    `yaml:"cacheMaxAge"`
	CacheScope          *string `yaml:"cacheScope"`
	CacheNoTransform    *bool   `yaml:"cacheNoTransform"`
	CacheMustRevalidate *bool   `yaml:"cacheMustRevalidate"`

	BreakerEnabled     *bool     `yaml:"breakerEnabled"`
	BreakerMaxFailures *int      `yaml:"breakerMaxFailures"`
	BreakerTimeout     *Duration `yaml:"breakerTimeout"`

	LogLevel  *string `yaml:"logLevel"`
	LogFormat *string `yaml:"logFormat"`
	LogOutput *string `yaml:"logOutput"`

	TracingEnabled    *bool    `yaml:"tracingEnabled"`
	OTLPEndpoint      *string  `yaml:"otlpEndpoint"`
	TracingSampleRate *float64 `yaml:"tracingSampleRate"`
	ServiceName       *string  `yaml:"serviceName"`
	ServiceVersion    *string  `yaml:"serviceVersion"`
	TracingInsecure   *bool    `yaml:"tracingInsecure"`

	MetricsEnabled *bool   `yaml:"metricsEnabled"`
	MetricsPath    *string `yaml:"metricsPath"`
}

// Load loads configuration from a YAML file path. Values absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path is a directory, not a file: %s", path)
	}

	// G304: path is validated above via os.Stat and comes from trusted configuration
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return parse(data)
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parse(data)
}

// LoadAndValidate loads a YAML config file and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// parse parses YAML data and merges it onto a default Config.
func parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(content), &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg := DefaultConfig()
	fc.apply(cfg)

	return cfg, nil
}

// apply copies set fields onto cfg.
func (fc *fileConfig) apply(cfg *Config) {
	setInt(&cfg.HTTPPort, fc.HTTPPort)
	setInt(&cfg.MetricsPort, fc.MetricsPort)

	setDuration(&cfg.ReadTimeout, fc.ReadTimeout)
	setDuration(&cfg.WriteTimeout, fc.WriteTimeout)
	setDuration(&cfg.IdleTimeout, fc.IdleTimeout)
	setDuration(&cfg.ShutdownTimeout, fc.ShutdownTimeout)

	setString(&cfg.CSRFSecretName, fc.CSRFSecretName)
	setDuration(&cfg.CSRFTokenMaxAge, fc.CSRFTokenMaxAge)

	setString(&cfg.SecretsProvider, fc.SecretsProvider)
	setString(&cfg.SecretsFilePath, fc.SecretsFilePath)
	setString(&cfg.SecretsEnvPrefix, fc.SecretsEnvPrefix)

	setString(&cfg.VaultAddress, fc.VaultAddress)
	setString(&cfg.VaultMountPoint, fc.VaultMountPoint)
	setString(&cfg.VaultSecretPath, fc.VaultSecretPath)
	setDuration(&cfg.VaultTimeout, fc.VaultTimeout)

	setBool(&cfg.RateLimitEnabled, fc.RateLimitEnabled)
	setInt(&cfg.RateLimitRequests, fc.RateLimitRequests)
	setDuration(&cfg.RateLimitWindow, fc.RateLimitWindow)
	setString(&cfg.RateLimitStoreType, fc.RateLimitStoreType)
	setString(&cfg.RedisAddress, fc.RedisAddress)
	setString(&cfg.RedisPassword, fc.RedisPassword)
	setInt(&cfg.RedisDB, fc.RedisDB)

	setInt(&cfg.CacheMaxAge, fc.CacheMaxAge)
	setString(&cfg.CacheScope, fc.CacheScope)
	setBool(&cfg.CacheNoTransform, fc.CacheNoTransform)
	setBool(&cfg.CacheMustRevalidate, fc.CacheMustRevalidate)

	setBool(&cfg.BreakerEnabled, fc.BreakerEnabled)
	setInt(&cfg.BreakerMaxFailures, fc.BreakerMaxFailures)
	setDuration(&cfg.BreakerTimeout, fc.BreakerTimeout)

	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.LogOutput, fc.LogOutput)

	setBool(&cfg.TracingEnabled, fc.TracingEnabled)
	setString(&cfg.OTLPEndpoint, fc.OTLPEndpoint)
	setFloat(&cfg.TracingSampleRate, fc.TracingSampleRate)
	setString(&cfg.ServiceName, fc.ServiceName)
	setString(&cfg.ServiceVersion, fc.ServiceVersion)
	setBool(&cfg.TracingInsecure, fc.TracingInsecure)

	setBool(&cfg.MetricsEnabled, fc.MetricsEnabled)
	setString(&cfg.MetricsPath, fc.MetricsPath)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *Duration) {
	if src != nil {
		*dst = src.Duration()
	}
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values.
func substituteEnvVars(content string) string {
	// Handle escaped dollar signs first
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return defaultValue
	})

	// Restore escaped dollar signs
	result = strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")

	return result
}

// ResolveConfigPath resolves a configuration file path, checking common locations.
func ResolveConfigPath(path string) (string, error) {
	// If path is absolute and exists, use it
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("config file not found: %s", path)
	}

	// Check relative to current directory
	if _, err := os.Stat(path); err == nil {
		return filepath.Abs(path)
	}

	// Check common locations
	etcPath := filepath.Join(string(filepath.Separator), "etc", "omnichat")
	commonPaths := []string{
		filepath.Join("configs", path),
		filepath.Join(etcPath, path),
		filepath.Join(os.Getenv("HOME"), ".omnichat", path),
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("config file not found: %s", path)
}
