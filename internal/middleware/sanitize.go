package middleware

import (
	"context"
	"errors"

	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

// Sanitize returns a middleware that classifies and redacts any error
// escaping the wrapped handler before it can reach a log line or a client.
// Errors that are already sanitized rpc.Errors pass through unchanged so
// their kind survives status mapping. Only the sanitized message and code
// are logged, never the raw error.
func Sanitize(logger observability.Logger) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			resp, err := next(ctx, req)
			if err == nil {
				return resp, nil
			}

			var already *rpc.Error
			if errors.As(err, &already) {
				return nil, already
			}

			classified := sanitize.Classify(err)
			GetMetrics().sanitizedErrors.WithLabelValues(string(classified.Kind)).Inc()

			logger.WithContext(ctx).Warn("handler error sanitized",
				observability.String("procedure", req.Procedure),
				observability.String("kind", string(classified.Kind)),
				observability.String("message", sanitize.Message(err.Error())),
			)

			return nil, rpc.WrapError(classified.Kind, classified.Message, err)
		}
	}
}
