package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omnichat/omnichat/internal/csrf"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/ratelimit"
	"github.com/omnichat/omnichat/internal/rpc"
)

// PipelineConfig holds the dependencies and policy for the full security
// pipeline. All services are constructed by the caller and injected here
// so tests can assemble isolated instances.
type PipelineConfig struct {
	Logger      observability.Logger
	Tracer      trace.Tracer
	CSRFTokens  *csrf.Service
	CSRFOptions []CSRFOption
	RateLimiter ratelimit.Limiter
	CachePolicy CachePolicy
}

// Pipeline composes the security middleware in canonical order around a
// handler. Recovery sits outermost so nothing below it can crash the
// transport; Sanitize sits directly above the handler so every escaping
// error is classified and redacted before the logging layer sees it;
// CacheHeaders runs innermost on the success path.
func Pipeline(cfg PipelineConfig) rpc.Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	mw := []rpc.Middleware{
		Recovery(logger),
		RequestID(),
	}
	if cfg.Tracer != nil {
		mw = append(mw, Tracing(cfg.Tracer))
	}
	mw = append(mw, Logging(logger))
	if cfg.RateLimiter != nil {
		mw = append(mw, RateLimit(cfg.RateLimiter, logger))
	}
	if cfg.CSRFTokens != nil {
		mw = append(mw, CSRF(cfg.CSRFTokens, logger, cfg.CSRFOptions...))
	}
	mw = append(mw,
		Sanitize(logger),
		CacheHeaders(cfg.CachePolicy, logger),
	)

	return rpc.Chain(mw...)
}

// Tracing returns a middleware that opens one span per RPC call.
func Tracing(tracer trace.Tracer) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			ctx, span := tracer.Start(ctx, "rpc "+req.Procedure,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("rpc.procedure", req.Procedure)),
			)
			defer span.End()

			resp, err := next(ctx, req)
			if err != nil {
				// The error is sanitized by the time it reaches this span.
				span.SetStatus(codes.Error, err.Error())
				return resp, err
			}

			if resp != nil && resp.Status == 304 {
				span.SetAttributes(attribute.Bool("rpc.cache_hit", true))
			}
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}
	}
}
