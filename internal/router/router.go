package router

import (
	"net/http"

	_ "medidispense/docs"
	"medidispense/internal/domain/alerts"
	"medidispense/internal/domain/doses"
	"medidispense/internal/domain/history"
	"medidispense/internal/domain/patients"
	"medidispense/internal/middleware"
	"medidispense/internal/platform/logger"
	"medidispense/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Engine   *doses.Engine
	History  *history.Log
	Patients *patients.Service
	Alerts   *alerts.Hub // puede ser nil: sin stream de alertas

	Logger logger.Logger

	// Límite por IP en las rutas que escriben. <= 0 => sin límite.
	RateLimitRPS   int
	RateLimitBurst int
}

func NewRouter(opts Options) http.Handler {
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(l))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var limit []func(http.Handler) http.Handler
	if opts.RateLimitRPS > 0 {
		limit = append(limit, middleware.NewIPRateLimiter(float64(opts.RateLimitRPS), opts.RateLimitBurst).Middleware)
	}

	// Rutas por módulo
	doses.RegisterRoutes(r, opts.Engine, limit...)
	history.RegisterRoutes(r, opts.History)
	patients.RegisterRoutes(r, opts.Patients, opts.Engine, opts.History)
	if opts.Alerts != nil {
		alerts.RegisterRoutes(r, opts.Alerts)
	}

	return r
}
