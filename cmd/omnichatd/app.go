package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omnichat/omnichat/internal/cache"
	"github.com/omnichat/omnichat/internal/config"
	"github.com/omnichat/omnichat/internal/csrf"
	"github.com/omnichat/omnichat/internal/middleware"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/provider"
	"github.com/omnichat/omnichat/internal/ratelimit"
	"github.com/omnichat/omnichat/internal/ratelimit/store"
	"github.com/omnichat/omnichat/internal/secrets"
	"github.com/omnichat/omnichat/internal/server"
)

// application holds all application components.
type application struct {
	config     *config.Config
	logger     observability.Logger
	tracer     *observability.TracerProvider
	secrets    secrets.Provider
	limiter    ratelimit.Limiter
	breaker    *provider.Breaker
	server     *server.Server
	metricsSrv *server.MetricsServer
}

// initApplication initializes all application components.
func initApplication(ctx context.Context, cfg *config.Config, logger observability.Logger, zapLogger *zap.Logger) (*application, error) {
	tracer, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.TracingInsecure,
		SampleRate:     cfg.TracingSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	secretsProvider, err := secrets.NewProvider(cfg, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets provider: %w", err)
	}

	signingSecret, err := secrets.ResolveCSRFSecret(ctx, secretsProvider, cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := csrf.NewService(signingSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSRF token service: %w", err)
	}

	limiter, err := buildLimiter(ctx, cfg, zapLogger)
	if err != nil {
		return nil, err
	}

	var breaker *provider.Breaker
	if cfg.BreakerEnabled {
		breaker = provider.NewBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout,
			provider.WithLogger(logger))
	}

	pipeline := middleware.Pipeline(middleware.PipelineConfig{
		Logger:      logger,
		Tracer:      tracer.Tracer(),
		CSRFTokens:  tokens,
		CSRFOptions: []middleware.CSRFOption{middleware.WithMaxAge(cfg.CSRFTokenMaxAge)},
		RateLimiter: limiter,
		CachePolicy: cachePolicy(cfg),
	})

	srv, err := server.New(cfg, pipeline, tokens, server.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	var metricsSrv *server.MetricsServer
	if cfg.MetricsEnabled {
		metricsSrv = server.NewMetricsServer(cfg, logger)
	}

	return &application{
		config:     cfg,
		logger:     logger,
		tracer:     tracer,
		secrets:    secretsProvider,
		limiter:    limiter,
		breaker:    breaker,
		server:     srv,
		metricsSrv: metricsSrv,
	}, nil
}

// buildLimiter constructs the rate limiter from configuration. With rate
// limiting disabled a no-op limiter keeps the pipeline shape unchanged.
func buildLimiter(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (ratelimit.Limiter, error) {
	if !cfg.RateLimitEnabled {
		return ratelimit.NewNoopLimiter(), nil
	}

	opts := []ratelimit.FixedWindowOption{ratelimit.WithLogger(zapLogger)}

	if cfg.RateLimitStoreType == "redis" {
		redisStore, err := store.NewRedisStore(ctx, &store.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   zapLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect rate limit store: %w", err)
		}
		opts = append(opts, ratelimit.WithStore(redisStore))
	}

	return ratelimit.NewFixedWindowLimiter(ratelimit.Config{
		MaxRequests: cfg.RateLimitRequests,
		Window:      cfg.RateLimitWindow,
	}, opts...), nil
}

// cachePolicy maps the cache configuration onto the pipeline policy.
func cachePolicy(cfg *config.Config) middleware.CachePolicy {
	scope := cache.ScopePrivate
	if cfg.CacheScope == "public" {
		scope = cache.ScopePublic
	}

	return middleware.CachePolicy{
		MaxAge:         cfg.CacheMaxAge,
		Scope:          scope,
		NoTransform:    cfg.CacheNoTransform,
		MustRevalidate: cfg.CacheMustRevalidate,
	}
}

// applyConfig applies reloadable settings from a changed configuration.
// Only rate limit parameters take effect without a restart.
func (app *application) applyConfig(cfg *config.Config) {
	if fixed, ok := app.limiter.(*ratelimit.FixedWindowLimiter); ok && cfg.RateLimitEnabled {
		fixed.SetLimits(cfg.RateLimitRequests, cfg.RateLimitWindow)
		app.logger.Info("rate limit parameters reloaded",
			observability.Int("maxRequests", cfg.RateLimitRequests),
			observability.Duration("window", cfg.RateLimitWindow),
		)
	}
}

// shutdown stops all components gracefully.
func (app *application) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if app.metricsSrv != nil {
		if err := app.metricsSrv.Shutdown(ctx); err != nil {
			app.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	app.limiter.Destroy()

	if err := app.secrets.Close(); err != nil {
		app.logger.Error("failed to close secrets provider", observability.Error(err))
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
