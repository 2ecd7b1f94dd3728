package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omnichat/omnichat/internal/config"
)

// NewProvider creates a secrets provider based on the application configuration.
func NewProvider(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}

	providerType, err := ValidateProviderType(cfg.SecretsProvider)
	if err != nil {
		return nil, err
	}

	switch providerType {
	case ProviderTypeEnv:
		return NewEnvProvider(&EnvProviderConfig{
			Prefix: cfg.SecretsEnvPrefix,
			Logger: logger,
		})

	case ProviderTypeFile:
		return NewFileProvider(&FileProviderConfig{
			BasePath: cfg.SecretsFilePath,
			Logger:   logger,
		})

	case ProviderTypeVault:
		// Vault token is taken from the VAULT_TOKEN environment variable by
		// the client when not set explicitly.
		return NewVaultProvider(&VaultProviderConfig{
			Address:    cfg.VaultAddress,
			MountPoint: cfg.VaultMountPoint,
			SecretPath: cfg.VaultSecretPath,
			Timeout:    cfg.VaultTimeout,
			Logger:     logger,
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, cfg.SecretsProvider)
	}
}

// ResolveCSRFSecret fetches the CSRF signing secret named by the configuration.
// The returned material is used verbatim; length requirements are enforced by
// the token service.
func ResolveCSRFSecret(ctx context.Context, provider Provider, cfg *config.Config) ([]byte, error) {
	secret, err := provider.GetSecret(ctx, cfg.CSRFSecretName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve CSRF signing secret %q: %w", cfg.CSRFSecretName, err)
	}
	if len(secret.Value) == 0 {
		return nil, fmt.Errorf("CSRF signing secret %q is empty", cfg.CSRFSecretName)
	}
	return secret.Value, nil
}
