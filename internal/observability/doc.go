// Package observability provides logging and tracing for the OmniChat
// backend.
//
// Logging is built on zap behind a small Logger interface so packages can
// accept a logger without depending on zap directly. Tracing uses
// OpenTelemetry with an OTLP exporter; the security pipeline opens one span
// per RPC call.
//
// Anything logged at the request boundary must pass through the redact
// package first; this package does not redact on its own.
package observability
