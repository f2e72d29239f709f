// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// RunIDHeader carries the id of the cleaning run a response belongs to.
const RunIDHeader = "X-Cleanse-Run-ID"

// Logger logs one line per request with method, path, status, bytes
// written, duration, client IP and user agent. The request id comes from
// chi's RequestID middleware; the run id is added when the handler set
// RunIDHeader. 5xx responses log at error level and 4xx at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if id := ww.Header().Get(RunIDHeader); id != "" {
			attrs = append(attrs, "run_id", id)
		}
		logging.FromContext(r.Context()).Log(r.Context(), level, "request", attrs...)
	})
}
