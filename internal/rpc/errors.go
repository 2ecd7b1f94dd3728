package rpc

import (
	"github.com/omnichat/omnichat/internal/sanitize"
)

// Error is a sanitized, classified RPC error. Its message is always safe
// to show to clients; the original error stays reachable through Unwrap
// for server-side inspection.
type Error struct {
	// Kind drives the transport's HTTP status mapping.
	Kind sanitize.Kind

	// Message is the user-safe message.
	Message string

	// RetryAfterSeconds is set for rate limit errors so the transport
	// can emit a Retry-After header. Zero means no hint.
	RetryAfterSeconds int

	cause error
}

// NewError creates a sanitized error.
func NewError(kind sanitize.Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a sanitized error that keeps the original reachable
// via errors.Unwrap. The original's message must already have been
// replaced; only Kind and the sanitized Message escape to clients.
func WrapError(kind sanitize.Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the original error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}
