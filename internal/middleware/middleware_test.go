package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnichat/omnichat/internal/csrf"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/ratelimit"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// okHandler returns a fixed payload.
func okHandler(data any) rpc.Handler {
	return func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return &rpc.Response{Data: data}, nil
	}
}

// newRequest builds a request with empty headers.
func newRequest(procedure string) *rpc.Request {
	return &rpc.Request{
		Procedure: procedure,
		Header:    http.Header{},
		ClientKey: "user-1",
	}
}

// ============================================================================
// Test Cases for Recovery
// ============================================================================

func TestRecovery_Panic(t *testing.T) {
	handler := Recovery(observability.NopLogger())(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		panic("boom")
	})

	resp, err := handler(context.Background(), newRequest("chat.send"))
	require.Error(t, err)
	assert.Nil(t, resp)

	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, sanitize.KindInternal, rpcErr.Kind)
	assert.NotContains(t, rpcErr.Error(), "boom")
}

func TestRecovery_PassThrough(t *testing.T) {
	handler := Recovery(observability.NopLogger())(okHandler("ok"))

	resp, err := handler(context.Background(), newRequest("chat.send"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Data)
}

// ============================================================================
// Test Cases for RequestID
// ============================================================================

func TestRequestID_Generates(t *testing.T) {
	var captured string
	handler := RequestID()(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		captured = observability.RequestIDFromContext(ctx)
		return &rpc.Response{}, nil
	})

	_, err := handler(context.Background(), newRequest("chat.send"))
	require.NoError(t, err)
	assert.NotEmpty(t, captured)
}

func TestRequestID_HonorsExisting(t *testing.T) {
	var captured string
	handler := RequestID()(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		captured = observability.RequestIDFromContext(ctx)
		return &rpc.Response{}, nil
	})

	req := newRequest("chat.send")
	req.Header.Set(HeaderRequestID, "req-abc")

	_, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "req-abc", captured)
}

// ============================================================================
// Test Cases for CSRF
// ============================================================================

func TestCSRF(t *testing.T) {
	tokens, err := csrf.NewService(testSecret)
	require.NoError(t, err)

	handler := CSRF(tokens, observability.NopLogger())(okHandler("ok"))

	t.Run("valid token passes", func(t *testing.T) {
		token, err := tokens.Generate()
		require.NoError(t, err)

		req := newRequest("chat.send")
		req.Header.Set(HeaderCSRFToken, token)

		resp, err := handler(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Data)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		_, err := handler(context.Background(), newRequest("chat.send"))
		var rpcErr *rpc.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, sanitize.KindUnauthorized, rpcErr.Kind)
	})

	t.Run("garbage token rejected without detail", func(t *testing.T) {
		req := newRequest("chat.send")
		req.Header.Set(HeaderCSRFToken, "not|a|token")

		_, err := handler(context.Background(), req)
		var rpcErr *rpc.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, sanitize.KindUnauthorized, rpcErr.Kind)
		// The message must not say which part failed.
		assert.Equal(t, "invalid or missing CSRF token", rpcErr.Error())
	})
}

func TestCSRF_MaxAgeOption(t *testing.T) {
	now := time.Now()
	clock := now
	tokens, err := csrf.NewService(testSecret, csrf.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	handler := CSRF(tokens, observability.NopLogger(), WithMaxAge(time.Minute))(okHandler("ok"))

	token, err := tokens.Generate()
	require.NoError(t, err)

	req := newRequest("chat.send")
	req.Header.Set(HeaderCSRFToken, token)

	_, err = handler(context.Background(), req)
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = handler(context.Background(), req)
	require.Error(t, err)
}

// ============================================================================
// Test Cases for RateLimit
// ============================================================================

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(ratelimit.Config{MaxRequests: 2, Window: time.Minute})
	t.Cleanup(limiter.Destroy)

	handler := RateLimit(limiter, observability.NopLogger())(okHandler("ok"))

	for i := 0; i < 2; i++ {
		_, err := handler(context.Background(), newRequest("chat.send"))
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := handler(context.Background(), newRequest("chat.send"))
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, sanitize.KindRateLimited, rpcErr.Kind)
	assert.Positive(t, rpcErr.RetryAfterSeconds)
}

func TestRateLimit_KeysIndependent(t *testing.T) {
	limiter := ratelimit.NewFixedWindowLimiter(ratelimit.Config{MaxRequests: 1, Window: time.Minute})
	t.Cleanup(limiter.Destroy)

	handler := RateLimit(limiter, observability.NopLogger())(okHandler("ok"))

	reqA := newRequest("chat.send")
	reqA.ClientKey = "user-a"
	reqB := newRequest("chat.send")
	reqB.ClientKey = "user-b"

	_, err := handler(context.Background(), reqA)
	require.NoError(t, err)

	_, err = handler(context.Background(), reqA)
	require.Error(t, err, "user-a over budget")

	_, err = handler(context.Background(), reqB)
	require.NoError(t, err, "user-b unaffected")
}

// ============================================================================
// Test Cases for Sanitize
// ============================================================================

func TestSanitize_ClassifiesRawError(t *testing.T) {
	handler := Sanitize(observability.NopLogger())(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return nil, errors.New("429: Too Many Requests from provider")
	})

	_, err := handler(context.Background(), newRequest("chat.send"))
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, sanitize.KindRateLimited, rpcErr.Kind)
}

func TestSanitize_RedactsSecrets(t *testing.T) {
	raw := errors.New("boom with key sk-1234567890abcdef1234567890abcdef")
	handler := Sanitize(observability.NopLogger())(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return nil, raw
	})

	_, err := handler(context.Background(), newRequest("chat.send"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "sk-")

	// The original error stays reachable for server-side inspection.
	assert.ErrorIs(t, err, raw)
}

func TestSanitize_PassesThroughSanitizedErrors(t *testing.T) {
	original := rpc.NewError(sanitize.KindNotFound, "model not available")
	handler := Sanitize(observability.NopLogger())(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return nil, original
	})

	_, err := handler(context.Background(), newRequest("chat.send"))
	assert.Same(t, original, err)
}

// ============================================================================
// Test Cases for CacheHeaders
// ============================================================================

func TestCacheHeaders_AttachesMetadata(t *testing.T) {
	handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(
		okHandler(map[string]any{"theme": "dark"}))

	resp, err := handler(context.Background(), newRequest("profile.get"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"theme": "dark"}, resp.Data)
	assert.NotEmpty(t, resp.ETag)
	assert.Equal(t, "private, max-age=60", resp.CacheControl)
	assert.Zero(t, resp.Status)
}

func TestCacheHeaders_304ShortCircuit(t *testing.T) {
	handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(
		okHandler(map[string]any{"theme": "dark"}))

	// First call to learn the ETag.
	first, err := handler(context.Background(), newRequest("profile.get"))
	require.NoError(t, err)
	require.NotEmpty(t, first.ETag)

	req := newRequest("profile.get")
	req.Header.Set(HeaderIfNoneMatch, first.ETag)

	resp, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.Status)
	assert.Equal(t, first.ETag, resp.ETag)
	assert.Nil(t, resp.Data)
}

func TestCacheHeaders_QuoteInsensitiveMatch(t *testing.T) {
	handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(
		okHandler(map[string]any{"a": float64(1)}))

	first, err := handler(context.Background(), newRequest("profile.get"))
	require.NoError(t, err)

	req := newRequest("profile.get")
	req.Header.Set(HeaderIfNoneMatch, first.ETag[1:len(first.ETag)-1])

	resp, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.Status)
}

func TestCacheHeaders_StaleValidatorGetsFullResponse(t *testing.T) {
	handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(
		okHandler(map[string]any{"a": float64(1)}))

	req := newRequest("profile.get")
	req.Header.Set(HeaderIfNoneMatch, `"stale-etag"`)

	resp, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestCacheHeaders_ScalarAndArrayResults(t *testing.T) {
	for _, data := range []any{"scalar", []any{float64(1), float64(2)}} {
		handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(okHandler(data))

		resp, err := handler(context.Background(), newRequest("profile.get"))
		require.NoError(t, err)
		assert.Equal(t, data, resp.Data, "payload shape preserved")
		assert.NotEmpty(t, resp.ETag)
	}
}

func TestCacheHeaders_ErrorsPassThrough(t *testing.T) {
	wantErr := rpc.NewError(sanitize.KindInternal, "nope")
	handler := CacheHeaders(CachePolicy{MaxAge: 60}, observability.NopLogger())(
		func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
			return nil, wantErr
		})

	_, err := handler(context.Background(), newRequest("profile.get"))
	assert.Same(t, error(wantErr), err)
}

// ============================================================================
// Test Cases for Pipeline
// ============================================================================

func TestPipeline_EndToEnd(t *testing.T) {
	tokens, err := csrf.NewService(testSecret)
	require.NoError(t, err)

	limiter := ratelimit.NewFixedWindowLimiter(ratelimit.Config{MaxRequests: 10, Window: time.Minute})
	t.Cleanup(limiter.Destroy)

	pipeline := Pipeline(PipelineConfig{
		Logger:      observability.NopLogger(),
		CSRFTokens:  tokens,
		RateLimiter: limiter,
		CachePolicy: CachePolicy{MaxAge: 60},
	})

	handler := pipeline(okHandler(map[string]any{"messages": []any{}}))

	token, err := tokens.Generate()
	require.NoError(t, err)

	req := newRequest("chat.list")
	req.Header.Set(HeaderCSRFToken, token)

	resp, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ETag)
	assert.Equal(t, "private, max-age=60", resp.CacheControl)

	// Conditional revisit short-circuits to 304.
	req.Header.Set(HeaderIfNoneMatch, resp.ETag)
	resp, err = handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.Status)
	assert.Nil(t, resp.Data)
}

func TestPipeline_HandlerErrorIsSanitized(t *testing.T) {
	tokens, err := csrf.NewService(testSecret)
	require.NoError(t, err)

	pipeline := Pipeline(PipelineConfig{
		Logger:      observability.NopLogger(),
		CSRFTokens:  tokens,
		CachePolicy: CachePolicy{MaxAge: 60},
	})

	handler := pipeline(func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return nil, errors.New("Incorrect API key sk-1234567890abcdef1234567890abcdef")
	})

	token, err := tokens.Generate()
	require.NoError(t, err)
	req := newRequest("chat.send")
	req.Header.Set(HeaderCSRFToken, token)

	_, err = handler(context.Background(), req)
	var rpcErr *rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, sanitize.KindUnauthorized, rpcErr.Kind)
	assert.NotContains(t, rpcErr.Error(), "sk-")
}

func TestPipeline_AppliedUniformly(t *testing.T) {
	// The same pipeline instance wraps any handler; CSRF applies to all.
	tokens, err := csrf.NewService(testSecret)
	require.NoError(t, err)

	pipeline := Pipeline(PipelineConfig{
		Logger:      observability.NopLogger(),
		CSRFTokens:  tokens,
		CachePolicy: CachePolicy{MaxAge: 60},
	})

	for _, procedure := range []string{"chat.send", "profile.update", "theme.set"} {
		handler := pipeline(okHandler("ok"))
		_, err := handler(context.Background(), newRequest(procedure))
		require.Error(t, err, "procedure %s must require a CSRF token", procedure)
	}
}
