package cache

import (
	"errors"
	"fmt"
	"strings"
)

// Cache scope directives.
const (
	ScopePrivate = "private"
	ScopePublic  = "public"
)

// ErrInvalidMaxAge is returned when ControlOptions.MaxAge is not positive.
var ErrInvalidMaxAge = errors.New("cache control max-age must be a positive integer")

// ControlOptions configures a Cache-Control header value.
type ControlOptions struct {
	// Scope is "private" or "public". Defaults to private.
	Scope string

	// MaxAge is the freshness lifetime in seconds. Required, must be positive.
	MaxAge int

	// NoTransform adds the no-transform directive.
	NoTransform bool

	// MustRevalidate adds the must-revalidate directive.
	MustRevalidate bool
}

// BuildControl renders the options into a Cache-Control header value. The
// directive order is fixed: scope, max-age, no-transform, must-revalidate.
func BuildControl(opts ControlOptions) (string, error) {
	if opts.MaxAge <= 0 {
		return "", ErrInvalidMaxAge
	}

	scope := opts.Scope
	if scope == "" {
		scope = ScopePrivate
	}

	parts := []string{scope, fmt.Sprintf("max-age=%d", opts.MaxAge)}
	if opts.NoTransform {
		parts = append(parts, "no-transform")
	}
	if opts.MustRevalidate {
		parts = append(parts, "must-revalidate")
	}

	return strings.Join(parts, ", "), nil
}
