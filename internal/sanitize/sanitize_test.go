package sanitize

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// codedError carries a provider error code distinct from its message.
type codedError struct {
	msg  string
	code string
}

func (e *codedError) Error() string     { return e.msg }
func (e *codedError) ErrorCode() string { return e.code }

// ============================================================================
// Test Cases for Classify - Taxonomy
// ============================================================================

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"rate limit", errors.New("429: Too Many Requests"), KindRateLimited},
		{"quota", errors.New("monthly quota exceeded"), KindRateLimited},
		{"auth", errors.New("Incorrect API key provided"), KindUnauthorized},
		{"forbidden", errors.New("403 Forbidden"), KindUnauthorized},
		{"model not found", errors.New("The model `gpt-9` does not exist"), KindNotFound},
		{"context", errors.New("maximum context length exceeded"), KindBadRequest},
		{"content policy", errors.New("request flagged by content filter"), KindBadRequest},
		{"invalid request", errors.New("invalid request: missing field"), KindBadRequest},
		{"payment", errors.New("402: billing hard limit reached"), KindBadRequest},
		{"network", errors.New("dial tcp: connection refused"), KindServiceUnavailable},
		{"timeout", errors.New("request timed out"), KindServiceUnavailable},
		{"overloaded", errors.New("529: provider overloaded"), KindServiceUnavailable},
		{"unclassified", errors.New("something odd happened"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassify_OrderMatters(t *testing.T) {
	// "api key" appears in the authentication group, but the rate limit
	// group is scanned first.
	got := Classify(errors.New("api key rate limit reached"))
	assert.Equal(t, KindRateLimited, got.Kind)
}

func TestClassify_FixedMessages(t *testing.T) {
	raw := "Incorrect API key sk-1234567890abcdef1234567890abcdef"
	got := Classify(errors.New(raw))

	assert.Equal(t, KindUnauthorized, got.Kind)
	assert.NotContains(t, got.Message, "sk-")
	assert.NotEqual(t, raw, got.Message)
}

func TestClassify_FallbackRedactsMessage(t *testing.T) {
	got := Classify(errors.New("exploded with sk-1234567890abcdef1234567890abcdef"))

	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "exploded with [REDACTED]", got.Message)
}

func TestClassify_NilError(t *testing.T) {
	got := Classify(nil)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "an unknown error occurred", got.Message)
}

func TestClassify_CauseChain(t *testing.T) {
	cause := errors.New("connection reset by peer")
	wrapped := fmt.Errorf("provider call failed: %w", cause)

	got := Classify(wrapped)
	assert.Equal(t, KindServiceUnavailable, got.Kind)
}

func TestClassify_CodeField(t *testing.T) {
	err := &codedError{msg: "request rejected", code: "model_not_found"}

	got := Classify(err)
	assert.Equal(t, KindNotFound, got.Kind)
}

func TestClassify_MessageBeforeCode(t *testing.T) {
	// The message matches rate limiting; the code would match auth.
	err := &codedError{msg: "too many requests", code: "invalid_api_key"}

	got := Classify(err)
	assert.Equal(t, KindRateLimited, got.Kind)
}

// ============================================================================
// Test Cases for Message
// ============================================================================

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(""))
	assert.Equal(t, "plain", Message("plain"))
	assert.Equal(t,
		"Invalid key [REDACTED]",
		Message("Invalid key sk-1234567890abcdef1234567890abcdef"))
}

// ============================================================================
// Test Cases for HTTPStatus
// ============================================================================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindRateLimited, 429},
		{KindUnauthorized, 401},
		{KindNotFound, 404},
		{KindBadRequest, 400},
		{KindServiceUnavailable, 503},
		{KindInternal, 500},
		{Kind("bogus"), 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), "kind %s", tt.kind)
	}
}
