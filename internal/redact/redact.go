// Package redact provides deep, structure-preserving redaction of
// secret-bearing values in JSON-like data.
//
// Redaction works on the shapes encoding/json produces: nil, bool, float64,
// string, []any, and map[string]any. Map keys are matched case-insensitively
// against a fixed sensitive-field set; matched values are replaced wholesale
// with the sentinel, whatever their type. Free-text strings anywhere in the
// tree are additionally scanned for known secret shapes (provider API key
// prefixes, JWT structure). The input is never mutated.
package redact

import (
	"regexp"
	"strings"
)

// Sentinel replaces redacted values.
const Sentinel = "[REDACTED]"

// sensitiveFields is the default set of field names whose values are
// redacted wholesale. Keys are lower case; matching is case-insensitive.
var sensitiveFields = map[string]struct{}{
	"apikey":        {},
	"api_key":       {},
	"key":           {},
	"encryptedkey":  {},
	"encrypted_key": {},
	"password":      {},
	"token":         {},
	"accesstoken":   {},
	"access_token":  {},
	"refreshtoken":  {},
	"refresh_token": {},
	"secret":        {},
	"privatekey":    {},
	"private_key":   {},
	"sessiontoken":  {},
	"session_token": {},
	"authorization": {},
	"authtoken":     {},
	"auth_token":    {},
	"bearer":        {},
	"credentials":   {},
}

// secretPatterns match known secret shapes embedded in free text. Order
// matters: the Anthropic prefix must come before the generic OpenAI prefix
// because both start with "sk-".
var secretPatterns = []*regexp.Regexp{
	// Anthropic API key
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{16,}`),
	// OpenAI API key
	regexp.MustCompile(`sk-[A-Za-z0-9]{16,}`),
	// Google API key
	regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`),
	// Groq API key
	regexp.MustCompile(`gsk_[A-Za-z0-9]{16,}`),
	// JWT: three base64url segments
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
}

// Value returns a deep copy of v with sensitive content replaced by the
// sentinel. extraFields extends the default sensitive-field set for this
// call only. Primitives pass through unchanged; strings are pattern-scanned;
// arrays and objects are rebuilt recursively. Values of types outside the
// JSON-like set pass through unchanged.
func Value(v any, extraFields ...string) any {
	extra := make(map[string]struct{}, len(extraFields))
	for _, f := range extraFields {
		extra[strings.ToLower(f)] = struct{}{}
	}
	return redactValue(v, extra)
}

// String replaces every secret-shape match in s with the sentinel.
// Surrounding text is preserved.
func String(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, Sentinel)
	}
	return s
}

// redactValue recurses over a JSON-like tree.
func redactValue(v any, extra map[string]struct{}) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return String(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = redactValue(elem, extra)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if isSensitiveField(k, extra) {
				out[k] = Sentinel
				continue
			}
			out[k] = redactValue(elem, extra)
		}
		return out
	default:
		// Numbers, booleans, and non-JSON types pass through.
		return val
	}
}

// isSensitiveField reports whether the key matches the default set or the
// per-call extra set, case-insensitively.
func isSensitiveField(key string, extra map[string]struct{}) bool {
	k := strings.ToLower(key)
	if _, ok := sensitiveFields[k]; ok {
		return true
	}
	_, ok := extra[k]
	return ok
}
