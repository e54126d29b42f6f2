package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP front of the wallet and game engine
type Server struct {
	httpServer *http.Server
}

// New builds the router and wraps it in an http.Server
func New(addr string, handler *Handler, allowedHosts []string) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/accounts", handler.createAccount)
		r.Get("/accounts/{id}", handler.getAccount)
		r.Post("/accounts/{id}/deposit", handler.deposit)
		r.Post("/accounts/{id}/withdraw", handler.withdraw)
		r.Post("/accounts/{id}/currency", handler.changeCurrency)
		r.Get("/accounts/{id}/history", handler.getHistory)

		r.Post("/rounds", handler.placeBet)
		r.Get("/rounds/recent-winners", handler.recentWinners)

		r.Get("/rates", handler.getRates)
	})

	upgrader := newUpgrader(allowedHosts)
	r.Get("/ws", handler.serveWS(upgrader))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // websocket connections stay open
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
