package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/visitlog/visitlog/internal/auth"
)

// RequireSession gates a route behind a live admin session carried in
// the session cookie. Requests without one get 401 with a JSON body.
func RequireSession(sessions *auth.Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				writeSessionError(w)
				return
			}

			ok, err := sessions.Validate(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("session validation failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !ok {
				logger.Warn("unauthorized dashboard access",
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeSessionError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
