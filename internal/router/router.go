package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "lead-activity-feed/docs"
	"lead-activity-feed/internal/domain/feed"
	"lead-activity-feed/internal/middleware"
	"lead-activity-feed/internal/platform/logger"
	"lead-activity-feed/internal/platform/metrics"
	"lead-activity-feed/internal/ports/auth"
)

type Options struct {
	// AuthVerifier may be nil: dev mode, claims come from X-Debug-User-ID.
	AuthVerifier auth.Verifier

	Feed *feed.Service

	Log logger.Logger

	MetricsEnabled bool
	SwaggerEnabled bool
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(opts.Log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.MetricsEnabled {
		r.Get("/metrics", metrics.Handler())
	}
	if opts.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	feed.RegisterRoutes(r, opts.Feed)

	return r
}
