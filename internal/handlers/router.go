// Package handlers exposes kiosk sessions over HTTP: pages, SSE and WebSocket
// streams, and the command API.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes cross-cutting middleware. CommandRateLimit is requests per
// minute per client IP, 0 disables it.
type RouterConfig struct {
	CORSOrigins      []string
	CommandRateLimit int
}

// NewRouter wires every route of the server
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if h.Origins == nil {
		h.Origins = cfg.CORSOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.HandleHome)
	r.Get("/new", h.HandleNew)
	r.Get("/s/{id}", h.HandleKiosk)
	r.Get("/sse/{id}", h.HandleSSE)
	r.Get("/ws/{id}", h.HandleWS)
	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/matches", h.HandleMatches)
		r.Get("/stats", h.HandleStats)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.HandleView)
			r.Get("/analysis", h.HandleAnalysis)
			r.Group(func(r chi.Router) {
				if cfg.CommandRateLimit > 0 {
					r.Use(httprate.LimitByIP(cfg.CommandRateLimit, time.Minute))
				}
				r.Post("/select", h.HandleSelect)
				r.Post("/goto", h.HandleGoTo)
				r.Post("/play", h.HandlePlay)
				r.Post("/pause", h.HandlePause)
				r.Post("/follow", h.HandleFollow)
				r.Post("/refresh", h.HandleRefresh)
			})
		})
	})
	return r
}
