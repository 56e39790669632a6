// Package http assembles the screening API: the chi route tree, the
// middleware chain, and the server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/EntityRisk-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of
// the route tree. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	ScreenHandler   *handlers.ScreenHandler
	RecordsHandler  *handlers.RecordsHandler
	KeywordsHandler *handlers.KeywordsHandler
	HealthHandler   *handlers.HealthHandler

	AllowedOrigins []string

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	AppMetrics       *prometheus.AppMetrics
}

// NewRouter builds the complete route tree: global middleware, public
// probe endpoints, the metrics endpoint, and the /api/v1 resource group.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.AppMetrics != nil {
		r.Use(middleware.Metrics(cfg.AppMetrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.ScreenHandler != nil {
			api.Post("/screen", cfg.ScreenHandler.Screen)
		}
		if cfg.RecordsHandler != nil {
			api.Get("/risk/assessments", cfg.RecordsHandler.ListAssessments)
			api.Get("/searches/recent", cfg.RecordsHandler.RecentSearches)
			api.Get("/statistics", cfg.RecordsHandler.Statistics)
		}
		if cfg.KeywordsHandler != nil {
			api.Get("/keywords", cfg.KeywordsHandler.List)
			api.Post("/keywords", cfg.KeywordsHandler.Add)
			api.Delete("/keywords", cfg.KeywordsHandler.Remove)
		}
	})

	return r
}
