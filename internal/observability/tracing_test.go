package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	provider, err := NewTracerProvider(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider)
	require.NotNil(t, provider.Tracer())

	// Spans from the noop tracer must be usable.
	_, span := provider.Tracer().Start(context.Background(), "test")
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "omnichat", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestTracerProvider_ShutdownIdempotent(t *testing.T) {
	provider, err := NewTracerProvider(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}
