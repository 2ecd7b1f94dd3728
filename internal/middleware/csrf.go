package middleware

import (
	"context"
	"time"

	"github.com/omnichat/omnichat/internal/csrf"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

// CSRFOption is a functional option for the CSRF middleware.
type CSRFOption func(*csrfMiddleware)

// WithMaxAge overrides the token lifetime.
func WithMaxAge(maxAge time.Duration) CSRFOption {
	return func(m *csrfMiddleware) {
		m.maxAge = maxAge
	}
}

type csrfMiddleware struct {
	tokens *csrf.Service
	logger observability.Logger
	maxAge time.Duration
}

// CSRF returns a middleware that rejects calls without a valid anti-CSRF
// token. The rejection message never reveals which part of the token
// failed.
func CSRF(tokens *csrf.Service, logger observability.Logger, opts ...CSRFOption) rpc.Middleware {
	m := &csrfMiddleware{
		tokens: tokens,
		logger: logger,
		maxAge: csrf.DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			token := req.Header.Get(HeaderCSRFToken)

			if !m.tokens.Validate(token, m.maxAge) {
				m.logger.WithContext(ctx).Warn("csrf token rejected",
					observability.String("procedure", req.Procedure),
				)
				GetMetrics().csrfFailures.Inc()
				return nil, rpc.NewError(sanitize.KindUnauthorized, "invalid or missing CSRF token")
			}

			return next(ctx, req)
		}
	}
}
