// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/visitlog/visitlog/internal/auth"
	"github.com/visitlog/visitlog/internal/config"
	"github.com/visitlog/visitlog/internal/identity"
	"github.com/visitlog/visitlog/internal/query"
	"github.com/visitlog/visitlog/internal/track"
)

// Handler wraps application dependencies for HTTP handlers.
type Handler struct {
	cfg        *config.Config
	tracker    *track.Tracker
	identities *identity.Service
	engine     *query.Engine
	sessions   *auth.Sessions
	logger     *slog.Logger
}

// New creates a new Handler instance.
func New(
	cfg *config.Config,
	tracker *track.Tracker,
	identities *identity.Service,
	engine *query.Engine,
	sessions *auth.Sessions,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cfg:        cfg,
		tracker:    tracker,
		identities: identities,
		engine:     engine,
		sessions:   sessions,
		logger:     logger,
	}
}

// Root is a simple info endpoint.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "visitlog",
		"version": "0.1.0",
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// clientIP returns the caller's address: the first hop of
// X-Forwarded-For when present, otherwise the connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
