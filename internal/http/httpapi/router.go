package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"upscaler/internal/http/handlers"
	"upscaler/internal/middleware"
)

// NewRouter wires the chi router, middleware chain and routes.
func NewRouter(app *handlers.App, rateLimitPerMin int) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.CORS(nil),
		middleware.Logger(app.Logger),
	)
	if app.Metrics != nil {
		r.Use(app.Metrics.Instrument)
	}

	r.Get("/health", app.Health)

	r.Route("/upscale", func(r chi.Router) {
		if rateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(rateLimitPerMin, time.Minute))
		}
		r.Post("/single", app.UpscaleSingle)
		r.Post("/batch", app.UpscaleBatch)
		r.Get("/status/{request_id}", app.UpscaleStatus)
	})

	if app.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	}

	return r
}
