// Package csrf implements stateless anti-CSRF tokens.
//
// A token is three pipe-joined parts: a 32-byte random value (hex), the
// issue time in epoch milliseconds (decimal), and an HMAC-SHA256 signature
// over "random|timestamp" (hex). Tokens are self-verifying; nothing is
// stored server-side. Validation never reveals which part failed.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinSecretLength is the minimum length of the signing secret in bytes.
	MinSecretLength = 32

	// DefaultMaxAge is the default token lifetime.
	DefaultMaxAge = time.Hour

	// randomLength is the number of random bytes in a token.
	randomLength = 32

	// hexPartLength is the hex-encoded length of the random and signature parts.
	hexPartLength = 64

	tokenParts = 3
	separator  = "|"
)

// ErrSecretTooShort is returned when the signing secret has insufficient entropy.
var ErrSecretTooShort = errors.New("csrf signing secret must be at least 32 bytes")

// Service generates and validates signed, time-bound CSRF tokens.
// A Service is stateless apart from the immutable signing secret and is
// safe for concurrent use.
type Service struct {
	secret []byte
	now    func() time.Time
}

// ServiceOption is a functional option for configuring the service.
type ServiceOption func(*Service)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. It fails if the secret is shorter
// than MinSecretLength so a missing or defaulted secret is caught at
// startup rather than silently signing with weak key material.
func NewService(secret []byte, opts ...ServiceOption) (*Service, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	s := &Service{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Generate returns a fresh token. Two consecutive calls differ with
// overwhelming probability because the random part carries 256 bits of
// entropy.
func (s *Service) Generate() (string, error) {
	buf := make([]byte, randomLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	random := hex.EncodeToString(buf)
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	signature := s.sign(random, timestamp)

	return random + separator + timestamp + separator + signature, nil
}

// Validate reports whether the token is authentic and no older than maxAge.
// It returns false for any structural deviation: wrong part count, a random
// or signature part that is not 64 lowercase hex characters, or a
// non-numeric timestamp. The signature comparison is constant time over the
// full decoded signature, and the age check is independent of it: a
// tampered token is never treated as merely expired.
func (s *Service) Validate(token string, maxAge time.Duration) bool {
	random, timestamp, signature, ok := splitToken(token)
	if !ok {
		return false
	}

	expected := s.signRaw(random, timestamp)
	presented, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	signatureOK := hmac.Equal(presented, expected)

	ms, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := s.now().Sub(time.UnixMilli(ms))
	ageOK := age <= maxAge

	return signatureOK && ageOK
}

// Timestamp extracts the issue time without verifying the signature. Used
// for diagnostics only. The second return value is false when the token
// cannot be parsed.
func (s *Service) Timestamp(token string) (time.Time, bool) {
	_, timestamp, _, ok := splitToken(token)
	if !ok {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	return time.UnixMilli(ms), true
}

// IsExpired reports whether the token's timestamp is older than maxAge.
// Unparsable tokens are treated as expired.
func (s *Service) IsExpired(token string, maxAge time.Duration) bool {
	issued, ok := s.Timestamp(token)
	if !ok {
		return true
	}
	return s.now().Sub(issued) > maxAge
}

// sign computes the hex-encoded signature over "random|timestamp".
func (s *Service) sign(random, timestamp string) string {
	return hex.EncodeToString(s.signRaw(random, timestamp))
}

// signRaw computes the raw HMAC-SHA256 signature over "random|timestamp".
func (s *Service) signRaw(random, timestamp string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(random + separator + timestamp))
	return mac.Sum(nil)
}

// splitToken splits and structurally validates a token. It accepts exactly
// the wire format ^[a-f0-9]{64}\|[0-9]+\|[a-f0-9]{64}$.
func splitToken(token string) (random, timestamp, signature string, ok bool) {
	parts := strings.Split(token, separator)
	if len(parts) != tokenParts {
		return "", "", "", false
	}

	random, timestamp, signature = parts[0], parts[1], parts[2]

	if !isLowerHex(random, hexPartLength) || !isLowerHex(signature, hexPartLength) {
		return "", "", "", false
	}
	if !isDigits(timestamp) {
		return "", "", "", false
	}

	return random, timestamp, signature, true
}

// isLowerHex reports whether s is exactly n lowercase hex characters.
func isLowerHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
