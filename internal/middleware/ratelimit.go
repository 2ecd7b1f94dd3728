package middleware

import (
	"context"
	"math"

	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/ratelimit"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

// RateLimit returns a middleware that applies per-principal rate limiting
// keyed by the request's ClientKey. A store failure fails open: losing the
// backend must not take chat down with it.
func RateLimit(limiter ratelimit.Limiter, logger observability.Logger) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			result, err := limiter.Allow(ctx, req.ClientKey)
			if err != nil {
				logger.WithContext(ctx).Error("rate limit check failed",
					observability.String("procedure", req.Procedure),
					observability.Error(err),
				)
				return next(ctx, req)
			}

			if !result.Allowed {
				logger.WithContext(ctx).Warn("rate limit exceeded",
					observability.String("procedure", req.Procedure),
					observability.String("client_key", req.ClientKey),
					observability.Duration("retry_after", result.RetryAfter),
				)
				GetMetrics().rateLimitDenied.Inc()

				rlErr := rpc.NewError(sanitize.KindRateLimited,
					"too many requests, please slow down")
				rlErr.RetryAfterSeconds = int(math.Ceil(result.RetryAfter.Seconds()))
				return nil, rlErr
			}

			return next(ctx, req)
		}
	}
}
