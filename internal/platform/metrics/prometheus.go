package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	doseActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_actions_total",
			Help: "Dose state transitions recorded, by resulting status",
		},
		[]string{"status"},
	)

	doseAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dose_alerts_total",
			Help: "Due-now medicine alerts published",
		},
	)

	historyPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_persist_failures_total",
			Help: "History snapshots that could not be written to storage",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware registra conteo y duración por ruta (patrón chi, no path crudo,
// para no explotar la cardinalidad con IDs de paciente).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush deja pasar el streaming (SSE de alertas).
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func RecordDoseAction(status string) {
	doseActions.WithLabelValues(status).Inc()
}

func RecordAlert() {
	doseAlerts.Inc()
}

func RecordPersistFailure() {
	historyPersistFailures.Inc()
}
