// Package middleware implements the security pipeline wrapped around every
// RPC call into the chat backend.
//
// # Components
//
//   - Recovery: panic recovery with stack trace logging
//   - RequestID: unique request identifier injection
//   - Logging: structured per-call logging with redacted fields
//   - CSRF: signed anti-CSRF token enforcement
//   - RateLimit: fixed-window per-principal rate limiting
//   - Sanitize: provider error classification and secret redaction
//   - CacheHeaders: ETag computation, Cache-Control, 304 short-circuit
//
// # Usage
//
// Middleware follow the chain pattern over rpc.Handler:
//
//	handler := rpc.Chain(
//	    middleware.Recovery(logger),
//	    middleware.RequestID(),
//	    middleware.RateLimit(limiter, logger),
//	    middleware.CSRF(tokens, logger),
//	    middleware.Sanitize(logger),
//	    middleware.CacheHeaders(policy),
//	)(yourHandler)
//
// Pipeline builds the full chain in that canonical order.
package middleware
