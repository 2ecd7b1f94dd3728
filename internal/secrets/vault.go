package secrets

import (
	"context"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// VaultProviderConfig holds configuration for the Vault secrets provider
type VaultProviderConfig struct {
	// Address is the Vault server address
	Address string
	// Token is the Vault token
	Token string
	// MountPoint is the KV2 secrets engine mount point (default "secret")
	MountPoint string
	// SecretPath is the path of the KV2 secret holding application secrets
	SecretPath string
	// Timeout is the request timeout
	Timeout time.Duration
	// Logger is the logger instance
	Logger *zap.Logger
}

// VaultProvider implements the Provider interface using HashiCorp Vault.
// Application secrets are keys of a single KV2 secret; GetSecret("csrf-signing-secret")
// reads that key from the configured secret path.
type VaultProvider struct {
	client     *vault.Client
	mountPoint string
	secretPath string
	logger     *zap.Logger
}

// NewVaultProvider creates a new Vault secrets provider
func NewVaultProvider(cfg *VaultProviderConfig) (*VaultProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrProviderNotConfigured)
	}
	if cfg.SecretPath == "" {
		return nil, fmt.Errorf("%w: vault secret path is required", ErrProviderNotConfigured)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mountPoint := cfg.MountPoint
	if mountPoint == "" {
		mountPoint = "secret"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	clientConfig := vault.DefaultConfig()
	clientConfig.Address = cfg.Address
	clientConfig.Timeout = timeout

	client, err := vault.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	logger.Info("Vault secrets provider initialized",
		zap.String("address", cfg.Address),
		zap.String("mountPoint", mountPoint),
		zap.String("secretPath", cfg.SecretPath),
	)

	return &VaultProvider{
		client:     client,
		mountPoint: mountPoint,
		secretPath: cfg.SecretPath,
		logger:     logger,
	}, nil
}

// Type returns the provider type
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// GetSecret retrieves a secret key from the configured KV2 secret
func (p *VaultProvider) GetSecret(ctx context.Context, name string) (*Secret, error) {
	start := time.Now()

	if name == "" {
		RecordOperation(p.Type(), "get", time.Since(start), ErrInvalidName)
		return nil, ErrInvalidName
	}

	p.logger.Debug("Getting secret from Vault",
		zap.String("name", name),
		zap.String("path", p.secretPath),
	)

	kvSecret, err := p.client.KVv2(p.mountPoint).Get(ctx, p.secretPath)
	if err != nil {
		p.logger.Error("Failed to read secret from Vault",
			zap.String("path", p.secretPath),
			zap.Error(err),
		)
		RecordOperation(p.Type(), "get", time.Since(start), err)
		return nil, fmt.Errorf("failed to read secret from vault: %w", err)
	}

	if kvSecret == nil || kvSecret.Data == nil {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	value, ok := kvSecret.Data[name].(string)
	if !ok {
		RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: key %s not present at %s", ErrSecretNotFound, name, p.secretPath)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)

	secret := &Secret{
		Name:  name,
		Value: []byte(value),
		Metadata: map[string]string{
			"source": "vault",
			"path":   p.secretPath,
		},
	}
	if kvSecret.VersionMetadata != nil {
		secret.Metadata["version"] = fmt.Sprintf("%d", kvSecret.VersionMetadata.Version)
	}

	return secret, nil
}

// HealthCheck checks Vault connectivity
func (p *VaultProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()

	health, err := p.client.Sys().HealthWithContext(ctx)
	if err != nil {
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		err := fmt.Errorf("vault is sealed")
		RecordOperation(p.Type(), "health_check", time.Since(start), err)
		return err
	}

	RecordOperation(p.Type(), "health_check", time.Since(start), nil)
	return nil
}

// Close cleans up provider resources
func (p *VaultProvider) Close() error {
	p.logger.Debug("Closing Vault secrets provider")
	return nil
}
