// Package sanitize classifies upstream AI-provider errors into a stable
// taxonomy and strips secrets from error text before it reaches logs or
// clients.
//
// Classification scans an ordered table of pattern groups; the first group
// that matches wins. Order is load-bearing: "api key rate limit" must
// classify as a rate limit, not an authentication failure, because the rate
// limit group is checked first.
package sanitize

import (
	"errors"
	"strings"

	"github.com/omnichat/omnichat/internal/redact"
)

// Kind is a stable error classification used by the transport layer to pick
// an HTTP status.
type Kind string

const (
	// KindRateLimited indicates the provider or gateway is rate limiting.
	KindRateLimited Kind = "rate_limited"

	// KindUnauthorized indicates an authentication or permission failure.
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound indicates a missing resource, typically an unknown model.
	KindNotFound Kind = "not_found"

	// KindBadRequest covers client-correctable failures: context exceeded,
	// content policy, invalid request, payment required.
	KindBadRequest Kind = "bad_request"

	// KindServiceUnavailable indicates network trouble or an upstream outage.
	KindServiceUnavailable Kind = "service_unavailable"

	// KindInternal is the fallback for unclassified errors.
	KindInternal Kind = "internal"
)

// Classified is the sanitized result of classifying an error.
type Classified struct {
	// Kind is the taxonomy bucket.
	Kind Kind

	// Message is a fixed, user-safe message. It never echoes raw provider
	// text except for the KindInternal fallback, which carries the
	// redacted original message.
	Message string
}

// unknownMessage is returned for nil or empty errors.
const unknownMessage = "an unknown error occurred"

// group is one entry of the ordered classification table.
type group struct {
	kind     Kind
	message  string
	patterns []string
}

// groups is the ordered classification table. Earlier entries win, so the
// more specific or overlapping phrases come first.
var groups = []group{
	{
		kind:    KindRateLimited,
		message: "The AI provider is currently rate limiting requests. Please wait a moment and try again.",
		patterns: []string{
			"rate limit", "rate_limit", "ratelimit", "too many requests",
			"quota exceeded", "429",
		},
	},
	{
		kind:    KindUnauthorized,
		message: "The provider rejected the configured credentials. Please check your API key settings.",
		patterns: []string{
			"api key", "apikey", "invalid key", "incorrect api key",
			"unauthorized", "authentication", "401", "403", "forbidden",
			"permission denied",
		},
	},
	{
		kind:    KindNotFound,
		message: "The requested model is not available. Please select a different model.",
		patterns: []string{
			"model not found", "model_not_found", "not_found",
			"no such model", "unknown model", "does not exist", "404",
		},
	},
	{
		kind:    KindBadRequest,
		message: "The conversation is too long for this model. Please start a new conversation or reduce the message size.",
		patterns: []string{
			"context length", "context_length", "maximum context",
			"token limit", "tokens exceed", "too long",
		},
	},
	{
		kind:    KindBadRequest,
		message: "The request was declined by the provider's content policy.",
		patterns: []string{
			"content policy", "content_policy", "content filter",
			"safety", "flagged",
		},
	},
	{
		kind:    KindBadRequest,
		message: "The request was rejected as invalid. Please try again.",
		patterns: []string{
			"invalid request", "invalid_request", "bad request",
			"bad_request", "malformed", "400",
		},
	},
	{
		kind:    KindServiceUnavailable,
		message: "Could not reach the AI provider. Please check your connection and try again.",
		patterns: []string{
			"connection refused", "connection reset", "econnrefused",
			"timeout", "timed out", "dns", "network", "no such host",
		},
	},
	{
		kind:    KindServiceUnavailable,
		message: "The AI provider is temporarily unavailable. Please try again shortly.",
		patterns: []string{
			"service unavailable", "unavailable", "overloaded",
			"internal server error", "502", "503", "529",
		},
	},
	{
		kind:    KindBadRequest,
		message: "The provider account has a billing problem. Please check your plan and billing details.",
		patterns: []string{
			"payment", "billing", "insufficient funds", "credit", "402",
		},
	},
}

// Coder is implemented by errors that carry a provider error code distinct
// from their message, such as provider.Error.
type Coder interface {
	ErrorCode() string
}

// Message applies secret-shape redaction to a single string. Empty input is
// returned unchanged.
func Message(s string) string {
	if s == "" {
		return s
	}
	return redact.String(s)
}

// Classify inspects an error's message, then any error code it carries,
// then its unwrap chain, against the ordered table. It never panics and
// never returns raw provider text for a classified kind; the fallback kind
// carries the redacted original message.
func Classify(err error) Classified {
	if err == nil {
		return Classified{Kind: KindInternal, Message: unknownMessage}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if c, ok := match(e.Error()); ok {
			return c
		}
		if coder, ok := e.(Coder); ok {
			if c, ok := match(coder.ErrorCode()); ok {
				return c
			}
		}
	}

	msg := Message(err.Error())
	if msg == "" {
		msg = unknownMessage
	}
	return Classified{Kind: KindInternal, Message: msg}
}

// HTTPStatus maps a kind to the HTTP status the transport should send.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindRateLimited:
		return 429
	case KindUnauthorized:
		return 401
	case KindNotFound:
		return 404
	case KindBadRequest:
		return 400
	case KindServiceUnavailable:
		return 503
	default:
		return 500
	}
}

// match scans the ordered table for the first group containing any of its
// patterns in s, case-insensitively.
func match(s string) (Classified, bool) {
	if s == "" {
		return Classified{}, false
	}
	lower := strings.ToLower(s)
	for _, g := range groups {
		for _, p := range g.patterns {
			if strings.Contains(lower, p) {
				return Classified{Kind: g.kind, Message: g.message}, true
			}
		}
	}
	return Classified{}, false
}
