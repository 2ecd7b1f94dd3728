package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnichat/omnichat/internal/sanitize"
)

func TestChain_Order(t *testing.T) {
	var calls []string

	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, req *Request) (*Response, error) {
				calls = append(calls, name+":before")
				resp, err := next(ctx, req)
				calls = append(calls, name+":after")
				return resp, err
			}
		}
	}

	handler := func(ctx context.Context, req *Request) (*Response, error) {
		calls = append(calls, "handler")
		return &Response{Data: "ok"}, nil
	}

	wrapped := Chain(tag("outer"), tag("inner"))(handler)
	resp, err := wrapped(context.Background(), &Request{Procedure: "test"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Data)

	assert.Equal(t, []string{
		"outer:before", "inner:before", "handler", "inner:after", "outer:after",
	}, calls)
}

func TestChain_Empty(t *testing.T) {
	handler := func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Data: 42}, nil
	}

	resp, err := Chain()(handler)(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Data)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("raw provider error")
	err := WrapError(sanitize.KindServiceUnavailable, "provider unavailable", cause)

	assert.Equal(t, "provider unavailable", err.Error())
	assert.ErrorIs(t, err, cause)

	var rpcErr *Error
	require.ErrorAs(t, error(err), &rpcErr)
	assert.Equal(t, sanitize.KindServiceUnavailable, rpcErr.Kind)
}

func TestNewError(t *testing.T) {
	err := NewError(sanitize.KindRateLimited, "slow down")
	assert.Equal(t, "slow down", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
