package secrets

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileProviderConfig holds configuration for the file-based secrets provider
type FileProviderConfig struct {
	// BasePath is the directory containing secret files
	BasePath string
	// Logger is the logger instance
	Logger *zap.Logger
}

// FileProvider implements the Provider interface using local files.
// Secret name "csrf-signing-secret" maps to "{basePath}/csrf-signing-secret".
// Trailing whitespace is stripped so files may end with a newline.
type FileProvider struct {
	basePath string
	logger   *zap.Logger
}

// NewFileProvider creates a new file-based secrets provider
func NewFileProvider(cfg *FileProviderConfig) (*FileProvider, error) {
	if cfg == nil || cfg.BasePath == "" {
		return nil, fmt.Errorf("%w: base path is required", ErrProviderNotConfigured)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: base path %s: %v", ErrProviderNotConfigured, cfg.BasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: base path %s is not a directory", ErrProviderNotConfigured, cfg.BasePath)
	}

	return &FileProvider{
		basePath: cfg.BasePath,
		logger:   logger,
	}, nil
}

// Type returns the provider type
func (p *FileProvider) Type() ProviderType {
	return ProviderTypeFile
}

// GetSecret retrieves a secret from a file under the base path
func (p *FileProvider) GetSecret(ctx context.Context, name string) (*Secret, error) {
	start := time.Now()

	if name == "" || strings.Contains(name, "..") {
		RecordOperation(p.Type(), "get", time.Since(start), ErrInvalidName)
		return nil, ErrInvalidName
	}

	path := filepath.Join(p.basePath, filepath.Clean(name))

	p.logger.Debug("Getting secret from file",
		zap.String("name", name),
		zap.String("path", path),
	)

	// G304: name is validated against traversal above and basePath comes from
	// trusted configuration
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			RecordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		RecordOperation(p.Type(), "get", time.Since(start), err)
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}

	RecordOperation(p.Type(), "get", time.Since(start), nil)

	return &Secret{
		Name:  name,
		Value: bytes.TrimRight(data, "\r\n"),
		Metadata: map[string]string{
			"source": "file",
			"path":   path,
		},
	}, nil
}

// HealthCheck checks that the base path is still accessible
func (p *FileProvider) HealthCheck(ctx context.Context) error {
	start := time.Now()

	_, err := os.Stat(p.basePath)
	RecordOperation(p.Type(), "health_check", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("secrets base path inaccessible: %w", err)
	}
	return nil
}

// Close cleans up provider resources
func (p *FileProvider) Close() error {
	p.logger.Debug("Closing file secrets provider")
	return nil
}
