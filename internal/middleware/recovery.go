package middleware

import (
	"context"
	"runtime/debug"

	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

// Recovery returns a middleware that recovers from panics in the handler
// or inner middleware, logging the stack and returning a generic internal
// error to the client.
func Recovery(logger observability.Logger) rpc.Middleware {
	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (resp *rpc.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()

					logger.WithContext(ctx).Error("panic recovered",
						observability.String("procedure", req.Procedure),
						observability.Any("error", r),
						observability.String("stack", string(stack)),
					)

					GetMetrics().panicsRecovered.Inc()

					resp = nil
					err = rpc.NewError(sanitize.KindInternal, "an unknown error occurred")
				}
			}()

			return next(ctx, req)
		}
	}
}
