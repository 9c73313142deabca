package middleware

import (
	"net/http"
	"time"

	"medidispense/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger deja una línea por request con el request id de chi.
func RequestLogger(l logger.Logger) func(http.Handler) http.Handler {
	l = l.With(map[string]any{"component": "http"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"request_id":  chimw.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          clientIP(r),
			}
			if status >= http.StatusInternalServerError {
				l.Error("request", fields)
				return
			}
			l.Info("request", fields)
		})
	}
}
