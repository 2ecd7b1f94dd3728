// Package rpc defines the call boundary the security pipeline wraps: a
// request with headers and a decoded payload, a response that can carry
// conditional-caching metadata without touching the handler's data, and
// the middleware chain contract.
package rpc

import (
	"context"
	"net/http"
)

// Request is one inbound RPC call.
type Request struct {
	// Procedure is the fully qualified procedure name, e.g. "chat.send".
	Procedure string

	// Header carries the transport request headers (If-None-Match,
	// X-CSRF-Token, and so on).
	Header http.Header

	// Payload is the decoded JSON request body.
	Payload any

	// ClientKey is the stable per-principal identifier used for rate
	// limiting: the authenticated user id when present, otherwise the
	// client IP.
	ClientKey string
}

// Response wraps a handler's result so caching metadata can be attached
// without corrupting the original shape; Data may be a scalar, array, or
// object and is never modified by the pipeline.
type Response struct {
	// Data is the handler's result. Nil on a 304 short-circuit.
	Data any

	// ETag is the strong validator for Data, quoted.
	ETag string

	// CacheControl is the Cache-Control header value to send.
	CacheControl string

	// Status is 304 when the caller's conditional header matched;
	// zero means the normal 200 path.
	Status int
}

// Handler processes one RPC call.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a Handler with additional behavior.
type Middleware func(Handler) Handler

// Chain composes middleware so the first one listed is outermost.
func Chain(mw ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
