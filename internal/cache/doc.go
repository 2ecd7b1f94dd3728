// Package cache implements HTTP conditional-caching support for RPC
// responses: deterministic serialization, strong ETag validators,
// Cache-Control header construction, and If-None-Match evaluation.
//
// ETags are computed over a stable, key-sorted rendering of the response
// payload, so two structurally equal values always produce the same
// validator regardless of map insertion order at any depth.
package cache
