package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omnichat/omnichat/internal/config"
	"github.com/omnichat/omnichat/internal/observability"
)

// MetricsServer serves Prometheus metrics on a dedicated port.
type MetricsServer struct {
	logger     observability.Logger
	httpServer *http.Server
}

// NewMetricsServer creates a metrics server from the application configuration.
func NewMetricsServer(cfg *config.Config, logger observability.Logger) *MetricsServer {
	if logger == nil {
		logger = observability.NopLogger()
	}

	path := cfg.MetricsPath
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &MetricsServer{
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving metrics. It blocks until the listener fails or
// Shutdown is called.
func (m *MetricsServer) Start() error {
	m.logger.Info("starting metrics server",
		observability.String("addr", m.httpServer.Addr),
	)

	if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down metrics server")
	return m.httpServer.Shutdown(ctx)
}
