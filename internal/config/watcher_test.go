package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Cases for Watcher
// ============================================================================

func TestWatcher_StartLoadsInitialConfig(t *testing.T) {
	path := writeTempConfig(t, `httpPort: 9000`)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	cfg := w.GetLastConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 9000, cfg.HTTPPort)
}

func TestWatcher_StartFailsOnInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, `logLevel: verbose`)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	path := writeTempConfig(t, `httpPort: 9000`)

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte(`httpPort: 9001`), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9001, cfg.HTTPPort)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	assert.Equal(t, 9001, w.GetLastConfig().HTTPPort)
}

func TestWatcher_InvalidReloadKeepsLastConfig(t *testing.T) {
	path := writeTempConfig(t, `httpPort: 9000`)

	errs := make(chan error, 1)
	w, err := NewWatcher(path, nil,
		WithDebounceDelay(10*time.Millisecond),
		WithErrorCallback(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte(`logLevel: verbose`), 0o600))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}

	assert.Equal(t, 9000, w.GetLastConfig().HTTPPort)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`httpPort: 9000`), 0o600))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(`httpPort: 1`), 0o600))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ForceReload(t *testing.T) {
	path := writeTempConfig(t, `httpPort: 9000`)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte(`httpPort: 9002`), 0o600))
	require.NoError(t, w.ForceReload())
	assert.Equal(t, 9002, w.GetLastConfig().HTTPPort)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeTempConfig(t, `httpPort: 9000`)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
