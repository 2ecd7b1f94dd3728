package middleware

import (
	"context"
	"net/http"

	"github.com/omnichat/omnichat/internal/cache"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
)

// CachePolicy configures the Cache-Control metadata attached to successful
// responses.
type CachePolicy struct {
	// Scope is "private" or "public". Defaults to private.
	Scope string

	// MaxAge is the freshness lifetime in seconds.
	MaxAge int

	// NoTransform adds the no-transform directive.
	NoTransform bool

	// MustRevalidate adds the must-revalidate directive.
	MustRevalidate bool
}

// CacheHeaders returns a middleware that attaches conditional-caching
// metadata to successful responses: an ETag over the stably serialized
// payload and a Cache-Control value from the policy. When the client's
// If-None-Match matches the fresh ETag, the response is short-circuited
// to a 304 with no payload. Errors pass through untouched.
func CacheHeaders(policy CachePolicy, logger observability.Logger) rpc.Middleware {
	cacheControl, err := cache.BuildControl(cache.ControlOptions{
		Scope:          policy.Scope,
		MaxAge:         policy.MaxAge,
		NoTransform:    policy.NoTransform,
		MustRevalidate: policy.MustRevalidate,
	})
	if err != nil {
		// A broken policy should surface in every response rather than
		// silently disable caching; the constructor path validates config
		// before we get here.
		cacheControl = ""
	}

	return func(next rpc.Handler) rpc.Handler {
		return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				resp = &rpc.Response{}
			}

			etag, etagErr := cache.ETag(resp.Data)
			if etagErr != nil {
				logger.WithContext(ctx).Warn("etag computation failed",
					observability.String("procedure", req.Procedure),
					observability.Error(etagErr),
				)
				return resp, nil
			}

			if cache.ShouldReturn304(etag, req.Header.Get(HeaderIfNoneMatch)) {
				GetMetrics().cacheHits.Inc()
				return &rpc.Response{
					Status: http.StatusNotModified,
					ETag:   etag,
				}, nil
			}

			resp.ETag = etag
			resp.CacheControl = cacheControl
			return resp, nil
		}
	}
}
