// Package provider models calls to upstream AI chat providers. It carries
// provider error details for classification and wraps upstream calls with a
// per-provider circuit breaker.
package provider

import "fmt"

// Well-known provider error codes. Upstream APIs use differing vocabularies;
// these are the normalized codes attached to Error values.
const (
	CodeRateLimited        = "rate_limited"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeBadRequest         = "bad_request"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternal           = "internal"
)

// Error is an error returned by an upstream provider call. It keeps the raw
// upstream message for server-side logs; user-facing sanitization happens at
// the request boundary.
type Error struct {
	// Provider is the upstream provider name (e.g. "anthropic", "openai")
	Provider string
	// Code is the normalized error code
	Code string
	// StatusCode is the upstream HTTP status, if any
	StatusCode int
	// Message is the raw upstream error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrorCode returns the normalized error code for classification.
func (e *Error) ErrorCode() string {
	return e.Code
}

// NewError creates a provider error.
func NewError(providerName, code string, statusCode int, message string) *Error {
	return &Error{
		Provider:   providerName,
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
	}
}

// CodeFromStatus maps an upstream HTTP status to a normalized error code.
func CodeFromStatus(status int) string {
	switch {
	case status == 429:
		return CodeRateLimited
	case status == 401 || status == 403:
		return CodeUnauthorized
	case status == 404:
		return CodeNotFound
	case status >= 400 && status < 500:
		return CodeBadRequest
	case status == 502 || status == 503 || status == 504 || status == 529:
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}
