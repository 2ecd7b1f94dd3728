package middleware

import (
	"context"
	"time"

	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
)

// Logging returns a middleware that logs each RPC call with its outcome
// and duration. Only the procedure name and bookkeeping fields are logged;
// payloads never reach the log without going through redact first, which
// is why this middleware does not log them at all.
func Logging(logger observability.Logger) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			duration := time.Since(start)
			log := logger.WithContext(ctx)

			outcome := "success"
			switch {
			case err != nil:
				outcome = "error"
			case resp != nil && resp.Status == 304:
				outcome = "not_modified"
			}

			GetMetrics().requestsTotal.WithLabelValues(req.Procedure, outcome).Inc()
			GetMetrics().requestDuration.WithLabelValues(req.Procedure).Observe(duration.Seconds())

			if err != nil {
				// err is already sanitized by the inner Sanitize middleware.
				log.Warn("rpc call failed",
					observability.String("procedure", req.Procedure),
					observability.Duration("duration", duration),
					observability.Error(err),
				)
				return resp, err
			}

			log.Info("rpc call completed",
				observability.String("procedure", req.Procedure),
				observability.Duration("duration", duration),
				observability.String("outcome", outcome),
			)
			return resp, nil
		}
	}
}
