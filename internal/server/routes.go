package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askhr/askhr/internal/config"
	"github.com/askhr/askhr/internal/middleware"
)

func newRouter(cfg *config.Config, h handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	cors := middleware.DefaultCORSConfig(cfg.CORSOrigins, cfg.APIKeyHeader)
	cors.MaxAge = config.DefaultCORSMaxAge
	r.Use(middleware.CORS(cors))

	// Public routes
	r.Get("/health", h.health.Health)
	r.Get("/", h.health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader))
		if cfg.EnableAuth {
			r.Use(middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/chat", h.chat.Chat)
			r.Post("/conversations/{conversation_id}/escalate", h.escalation.Escalate)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/tables", h.catalog.Tables)
				r.Get("/endpoints", h.catalog.Endpoints)
				r.Post("/compile", h.catalog.Compile)
			})
		})
	})

	return r
}
