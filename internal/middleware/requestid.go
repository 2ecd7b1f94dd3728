package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
)

// RequestID returns a middleware that attaches a request ID to the call
// context, honoring an ID the transport already assigned.
func RequestID() rpc.Middleware {
	return RequestIDWithGenerator(func() string {
		return uuid.New().String()
	})
}

// RequestIDWithGenerator returns a middleware that uses a custom ID
// generator.
func RequestIDWithGenerator(generator func() string) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			requestID := req.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = generator()
			}

			ctx = observability.ContextWithRequestID(ctx, requestID)
			return next(ctx, req)
		}
	}
}
