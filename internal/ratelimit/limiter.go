// Package ratelimit provides fixed-window per-key rate limiting for the
// RPC boundary. A window opens on a key's first request and fully resets
// once it elapses. Limiting state lives in process memory by default; a
// Redis-backed store is available for multi-replica deployments.
package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks whether one more request is allowed for the given key.
	// It returns only an allow/deny decision plus window bookkeeping;
	// HTTP status mapping is the caller's responsibility.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error

	// Destroy stops background work and clears all state. It is
	// idempotent and safe to call with zero buckets.
	Destroy()
}

// Result represents the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed per window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAfter is the duration until the current window resets.
	ResetAfter time.Duration

	// RetryAfter is the duration to wait before retrying (zero when allowed).
	RetryAfter time.Duration
}

// Config holds configuration for creating a rate limiter.
type Config struct {
	// MaxRequests is the maximum number of requests allowed per window.
	MaxRequests int

	// Window is the fixed window length.
	Window time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 100,
		Window:      time.Minute,
	}
}

// NoopLimiter is a rate limiter that always allows requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	return &Result{Allowed: true}, nil
}

// Reset implements Limiter.
func (l *NoopLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

// Destroy implements Limiter.
func (l *NoopLimiter) Destroy() {}
