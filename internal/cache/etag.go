package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ETag computes a strong validator for v: the SHA-256 digest of its stable
// serialization, lowercase hex, wrapped in double quotes.
func ETag(v any) (string, error) {
	serialized, err := StableSerialize(v)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(serialized))
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// ShouldReturn304 reports whether a conditional request matches the current
// ETag. The comparison strips surrounding quotes from both sides, so
// clients that echo the validator unquoted still match. An absent
// If-None-Match never matches.
func ShouldReturn304(currentETag, ifNoneMatch string) bool {
	if ifNoneMatch == "" {
		return false
	}
	return trimQuotes(currentETag) == trimQuotes(ifNoneMatch)
}

// trimQuotes strips one pair of surrounding double quotes.
func trimQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
