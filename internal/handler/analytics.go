package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/visitlog/visitlog/internal/keys"
	"github.com/visitlog/visitlog/internal/middleware"
	"github.com/visitlog/visitlog/internal/query"
)

// Analytics serves the dashboard snapshot. Session-gated.
// GET /api/analytics
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := query.Options{
		From:        q.Get("from"),
		To:          q.Get("to"),
		Granularity: q.Get("granularity"),
		Country:     q.Get("country"),
		VisitorID:   q.Get("visitorId"),
		Search:      q.Get("search"),
	}

	if opts.From != "" && opts.From != query.RangeAll && !validDay(opts.From) {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	if opts.To != "" && !validDay(opts.To) {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	if tz := q.Get("timeZone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid time zone")
			return
		}
		opts.Location = loc
	}

	if v := q.Get("visitorPage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid visitorPage")
			return
		}
		opts.VisitorPage = n
	}
	if v := q.Get("visitorLimit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid visitorLimit")
			return
		}
		opts.VisitorLimit = n
	}

	snap, err := h.engine.Query(r.Context(), opts)
	if err != nil {
		h.logger.Error("analytics query failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "failed to build analytics")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func validDay(s string) bool {
	_, err := time.Parse(keys.DayLayout, s)
	return err == nil
}
