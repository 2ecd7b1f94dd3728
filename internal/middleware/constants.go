package middleware

// Header names used at the RPC boundary.
const (
	// HeaderCSRFToken carries the client's anti-CSRF token.
	HeaderCSRFToken = "X-Csrf-Token"

	// HeaderIfNoneMatch carries the client's conditional ETag.
	HeaderIfNoneMatch = "If-None-Match"

	// HeaderRequestID carries the request identifier.
	HeaderRequestID = "X-Request-Id"
)
