package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets
const DefaultEnvPrefix = "OMNICHAT_SECRET_"

// EnvProviderConfig holds configuration for the environment variable secrets provider
type EnvProviderConfig struct {
	// Prefix is the prefix for environment variables
	// Default: "OMNICHAT_SECRET_"
	Prefix string
	// Logger is the logger instance
	Logger *zap.Logger
}

// EnvProvider implements the Provider interface using environment variables.
// Secret name "csrf-signing-secret" maps to env var "{PREFIX}CSRF_SIGNING_SECRET".
type EnvProvider struct {
	prefix string
	logger *zap.Logger
}

// NewEnvProvider creates a new environment variable secrets provider
func NewEnvProvider(cfg *EnvProviderConfig) (*EnvProvider, error) {
	if cfg == nil {
		cfg = &EnvProviderConfig{}
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnvProvider{
		prefix: prefix,
		logger: logger,
	}, nil
}

// Type returns the provider type
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName converts a secret name to an environment variable name
// - Converts to uppercase
// - Replaces dashes and dots with underscores
// - Adds the configured prefix
func (p *EnvProvider) normalizeEnvName(name string) string {
	envName := strings.ToUpper(name)
	envName = strings.ReplaceAll(envName, "-", "_")
	envName = strings.ReplaceAll(envName, ".", "_")
	envName = strings.ReplaceAll(envName, "/", "_")

	return p.prefix + envName
}

// GetSecret retrieves a secret from environment variables
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (*Secret, error) {
	start := time.Now()

	if name == "" {
		RecordOperation(p.Type(), "get", time.Since(start), ErrInvalidName)
		return nil, ErrInvalidName
	}

	envName := p.normalizeEnvName(name)

	p.logger.Debug("Getting secret from environment variable",
		zap.String("name", name),
		zap.String("envVar", envName),
	)

	value, exists := os.LookupEnv(envName)
	if !exists {
		p.logger.Debug("Environment variable not found",
			zap.String("envVar", envName),
		)
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)

	return &Secret{
		Name:  name,
		Value: []byte(value),
		Metadata: map[string]string{
			"source":  "environment",
			"env_var": envName,
		},
	}, nil
}

// HealthCheck always returns nil as environment variables are always available
func (p *EnvProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()
	RecordOperation(p.Type(), "health_check", time.Since(start), nil)
	return nil
}

// Close cleans up provider resources
func (p *EnvProvider) Close() error {
	p.logger.Debug("Closing environment secrets provider")
	return nil
}
