// Package server wires ARISE's minimal HTTP surface: /healthz, /readyz, and
// the /ws WebSocket upgrade endpoint. Grounded on the teacher's
// internal/server (chi.NewRouter + middleware.Recoverer/RequestID/RealIP +
// cors.Handler), scaled down to the ambient health mux this corpus always
// carries rather than the teacher's full REST surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/reliability"
	"github.com/arise-platform/toppicks-engine/internal/wshub"
)

// Config holds the dependencies the HTTP surface is built from.
type Config struct {
	Port    int
	Log     zerolog.Logger
	Health  *reliability.HealthService
	Hub     *wshub.Hub
	DevMode bool
}

// Server is ARISE's HTTP surface: process health plus the client WebSocket
// upgrade endpoint.
type Server struct {
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger
}

// New builds the router and a not-yet-started http.Server.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", cfg.Health.HealthzHandler())
	s.router.Get("/readyz", cfg.Health.ReadyzHandler())
	s.router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Hub.Connect(w, r); err != nil {
			s.log.Warn().Err(err).Msg("websocket connect failed")
		}
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start runs the HTTP server, blocking until it stops. Callers normally run
// this in its own goroutine.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
