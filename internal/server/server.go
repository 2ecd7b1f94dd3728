// Package server exposes the RPC boundary over HTTP. Procedures are
// registered by name and invoked via POST /rpc/{procedure}; the composed
// security pipeline wraps every registered handler uniformly.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/omnichat/omnichat/internal/config"
	"github.com/omnichat/omnichat/internal/csrf"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
	"github.com/omnichat/omnichat/internal/sanitize"
)

// maxBodyBytes caps the decoded request body size.
const maxBodyBytes = 10 << 20 // 10 MB

// HeaderUserID identifies the authenticated user for rate limit keying.
const HeaderUserID = "X-User-Id"

// Server serves the RPC boundary over HTTP.
type Server struct {
	cfg      *config.Config
	logger   observability.Logger
	pipeline rpc.Middleware
	tokens   *csrf.Service

	mu       sync.RWMutex
	handlers map[string]rpc.Handler

	httpServer *http.Server
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server wrapping registered handlers with the given pipeline.
// The CSRF token service backs the token issuance endpoint.
func New(cfg *config.Config, pipeline rpc.Middleware, tokens *csrf.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("CSRF token service is required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   observability.NopLogger(),
		pipeline: pipeline,
		tokens:   tokens,
		handlers: make(map[string]rpc.Handler),
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc/{procedure}", s.handleRPC)
	mux.HandleFunc("GET /csrf/token", s.handleCSRFToken)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// Register registers a handler under a procedure name, wrapped with the
// pipeline. Registering the same procedure twice replaces the handler.
func (s *Server) Register(procedure string, handler rpc.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[procedure] = s.pipeline(handler)
}

// handler looks up the wrapped handler for a procedure.
func (s *Server) handler(procedure string) (rpc.Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[procedure]
	return h, ok
}

// Start begins serving HTTP. It blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		observability.String("addr", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's root HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleRPC decodes a procedure call, runs it through the pipeline, and
// writes the result with any conditional-caching metadata.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	procedure := r.PathValue("procedure")

	handler, ok := s.handler(procedure)
	if !ok {
		writeError(w, &rpc.Error{
			Kind:    sanitize.KindNotFound,
			Message: fmt.Sprintf("unknown procedure %q", procedure),
		})
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		writeError(w, &rpc.Error{
			Kind:    sanitize.KindBadRequest,
			Message: "request body is not valid JSON",
		})
		return
	}

	req := &rpc.Request{
		Procedure: procedure,
		Header:    r.Header,
		Payload:   payload,
		ClientKey: clientKey(r),
	}

	resp, err := handler(r.Context(), req)
	if err != nil {
		var rpcErr *rpc.Error
		if !errors.As(err, &rpcErr) {
			// The pipeline sanitizes everything; this is a wiring bug.
			s.logger.Error("unsanitized error escaped the pipeline",
				observability.String("procedure", procedure),
				observability.Error(err),
			)
			rpcErr = &rpc.Error{Kind: sanitize.KindInternal, Message: "an unknown error occurred"}
		}
		writeError(w, rpcErr)
		return
	}

	writeResponse(w, resp)
}

// handleCSRFToken issues a fresh CSRF token. Token issuance is the one
// operation that cannot itself require a token.
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.tokens.Generate()
	if err != nil {
		s.logger.Error("failed to generate CSRF token", observability.Error(err))
		writeError(w, &rpc.Error{Kind: sanitize.KindInternal, Message: "an unknown error occurred"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"maxAge": int(s.cfg.CSRFTokenMaxAge.Seconds()),
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// decodePayload reads and decodes the JSON request body. An empty body
// decodes to nil.
func decodePayload(r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// clientKey derives the rate limit key: the authenticated user id when
// present, otherwise the client IP without the port.
func clientKey(r *http.Request) string {
	if user := r.Header.Get(HeaderUserID); user != "" {
		return "user:" + user
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// writeResponse writes a successful pipeline response, honoring the 304
// short-circuit.
func writeResponse(w http.ResponseWriter, resp *rpc.Response) {
	if resp.ETag != "" {
		w.Header().Set("ETag", resp.ETag)
	}
	if resp.CacheControl != "" {
		w.Header().Set("Cache-Control", resp.CacheControl)
	}

	if resp.Status == http.StatusNotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": resp.Data})
}

// writeError writes a sanitized error response.
func writeError(w http.ResponseWriter, rpcErr *rpc.Error) {
	if rpcErr.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rpcErr.RetryAfterSeconds))
	}

	writeJSON(w, sanitize.HTTPStatus(rpcErr.Kind), map[string]any{
		"error": map[string]any{
			"kind":    string(rpcErr.Kind),
			"message": rpcErr.Message,
		},
	})
}

// writeJSON serializes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
