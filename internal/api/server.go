// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the compare sessions, the pro swing catalog and the
// playback bridge over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/swinglab/internal/api/middleware"
	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/health"
	"github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/player"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies. Media uploads are not limited here.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the server routes to.
type Deps struct {
	Manager *manager.Manager
	Catalog *catalog.Catalog
	Hub     *player.Hub
	Health  *health.Manager
	Version string

	Tracing           bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server is the HTTP front of swinglab.
type Server struct {
	deps   Deps
	logger zerolog.Logger
	router chi.Router
}

// New builds the server and its routes.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: log.WithComponent("api"),
	}
	if s.deps.Health == nil {
		s.deps.Health = health.NewManager(deps.Version)
	}
	s.deps.Health.SetDetails(func() map[string]any {
		return map[string]any{"sessions": len(deps.Manager.IDs())}
	})
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableTracing:         s.deps.Tracing,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/media/{name}", s.handleMedia)

	r.Route("/api/v1", func(r chi.Router) {
		if s.deps.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.deps.RateLimitRequests,
				WindowSize:   s.deps.RateLimitWindow,
			}))
		}

		r.Get("/openapi.yaml", s.handleOpenAPI)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", s.handleCatalogList)
			r.Post("/", s.handleCatalogRegister)
			r.Get("/{swingID}", s.handleCatalogGet)
			r.Put("/{swingID}/media", s.handleCatalogMedia)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleSessionCreate)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleSessionGet)
				r.Delete("/", s.handleSessionDelete)
				r.Get("/recents", s.handleRecents)
				r.Get("/ws", s.handleBridge)

				r.Put("/slots/{slot}/video", s.handleSetVideo)
				r.Delete("/slots/{slot}/video", s.handleClearVideo)
				r.Post("/slots/{slot}/flip", s.handleFlip)
				r.Post("/slots/{slot}/duration", s.handleDuration)

				r.Put("/active", s.handleSetActive)
				r.Post("/active/swap", s.handleSwapActive)

				r.Post("/transport/{action}", s.handleTransport)
				r.Post("/gesture", s.handleGesture)
			})
		})
	})
	return r
}
