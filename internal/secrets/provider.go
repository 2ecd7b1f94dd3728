// Package secrets provides a unified interface for resolving application
// secrets, such as the CSRF signing secret, from multiple backends:
// environment variables, local files, and HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProviderType represents the type of secrets provider
type ProviderType string

const (
	// ProviderTypeEnv uses environment variables as the backend
	ProviderTypeEnv ProviderType = "env"
	// ProviderTypeFile uses local files as the backend
	ProviderTypeFile ProviderType = "file"
	// ProviderTypeVault uses HashiCorp Vault as the backend
	ProviderTypeVault ProviderType = "vault"
)

// Common errors for secrets providers
var (
	// ErrSecretNotFound is returned when a secret is not found
	ErrSecretNotFound = errors.New("secret not found")
	// ErrProviderNotConfigured is returned when the provider is not properly configured
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrInvalidName is returned when the secret name is invalid
	ErrInvalidName = errors.New("invalid secret name")
	// ErrInvalidProviderType is returned when an unknown provider type is specified
	ErrInvalidProviderType = errors.New("invalid provider type")
)

// Secret represents a named secret value.
type Secret struct {
	// Name is the name the secret was requested under
	Name string
	// Value is the secret material
	Value []byte
	// Metadata contains additional metadata about the secret
	Metadata map[string]string
}

// Provider is the interface for secrets providers.
type Provider interface {
	// Type returns the provider type
	Type() ProviderType

	// GetSecret retrieves a secret by name.
	// Name format depends on the provider:
	// - env: "csrf-signing-secret" maps to "{PREFIX}CSRF_SIGNING_SECRET"
	// - file: "csrf-signing-secret" maps to "{basePath}/csrf-signing-secret"
	// - vault: "csrf-signing-secret" is a key in the configured KV2 secret
	GetSecret(ctx context.Context, name string) (*Secret, error)

	// HealthCheck checks provider connectivity
	HealthCheck(ctx context.Context) error

	// Close cleans up provider resources
	Close() error
}

// Prometheus metrics for secrets provider operations
var (
	secretsOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "omnichat",
			Subsystem: "secrets",
			Name:      "operation_duration_seconds",
			Help:      "Duration of secrets provider operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation", "result"},
	)

	secretsOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnichat",
			Subsystem: "secrets",
			Name:      "operation_total",
			Help:      "Total number of secrets provider operations",
		},
		[]string{"provider", "operation", "result"},
	)
)

// RecordOperation records metrics for a secrets provider operation
func RecordOperation(provider ProviderType, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	providerStr := string(provider)
	secretsOperationDuration.WithLabelValues(providerStr, operation, result).Observe(duration.Seconds())
	secretsOperationTotal.WithLabelValues(providerStr, operation, result).Inc()
}

// ValidateProviderType validates that the given string is a valid provider type
func ValidateProviderType(providerType string) (ProviderType, error) {
	switch ProviderType(providerType) {
	case ProviderTypeEnv, ProviderTypeFile, ProviderTypeVault:
		return ProviderType(providerType), nil
	default:
		return "", fmt.Errorf("%w: %s, must be one of: env, file, vault", ErrInvalidProviderType, providerType)
	}
}

// IsValidProviderType checks if the given string is a valid provider type
func IsValidProviderType(providerType string) bool {
	_, err := ValidateProviderType(providerType)
	return err == nil
}
