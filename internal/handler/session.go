package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/visitlog/visitlog/internal/auth"
	"github.com/visitlog/visitlog/internal/middleware"
)

type loginRequest struct {
	Password string `json:"password"`
}

// Login verifies the admin password and mints a session cookie.
// POST /api/session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, h.cfg.AdminPasswordHash)
	if err != nil {
		h.logger.Error("password verification failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	if !ok {
		h.logger.Warn("failed admin login",
			slog.String("ip", r.RemoteAddr),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("session create failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Logout destroys the current session and clears the cookie.
// DELETE /api/session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error("session destroy failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
