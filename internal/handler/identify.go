package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/visitlog/visitlog/internal/middleware"
	"github.com/visitlog/visitlog/internal/track"
)

type identifyRequest struct {
	Email    string `json:"email"`
	Identity string `json:"identity"`
}

// Identify attaches a human label to the caller's fingerprint. The
// fingerprint is recomputed server-side from the caller's address and
// user agent so a client cannot label someone else's visitor id.
// POST /api/identify
func (h *Handler) Identify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	label := req.Email
	if label == "" {
		label = req.Identity
	}
	if label == "" {
		writeError(w, http.StatusBadRequest, "email or identity is required")
		return
	}

	visitorID := track.VisitorID(clientIP(r), r.UserAgent())

	if err := h.identities.Identify(r.Context(), visitorID, label); err != nil {
		h.logger.Error("identify failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "failed to store identity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"visitorId": visitorID,
	})
}
