package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/visitlog/visitlog/internal/middleware"
	"github.com/visitlog/visitlog/internal/model"
	"github.com/visitlog/visitlog/internal/track"
)

// Track ingests one page-view event.
// POST /api/track
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The site middleware normally submits a fully populated event, but
	// direct callers may omit transport-derived fields.
	if ev.IP == "" {
		ev.IP = clientIP(r)
	}
	if ev.UserAgent == "" {
		ev.UserAgent = r.UserAgent()
	}
	if ev.VisitorID == "" {
		ev.VisitorID = track.VisitorID(ev.IP, ev.UserAgent)
	}

	ignored, err := h.tracker.Track(r.Context(), ev)
	if errors.Is(err, track.ErrMissingPath) {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err != nil {
		h.logger.Error("track failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "failed to track event")
		return
	}

	if ignored {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "ignored": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
