package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/landmark-studio/internal/config"
	"github.com/kozaktomas/landmark-studio/internal/database"
	"github.com/kozaktomas/landmark-studio/internal/detector"
	"github.com/kozaktomas/landmark-studio/internal/web/handlers"
	"github.com/kozaktomas/landmark-studio/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	sessions   *handlers.SessionRegistry
}

// NewServer creates a new web server. The adjustment store may be nil when
// persistence is not configured.
func NewServer(cfg *config.Config, port int, host string, store database.AdjustmentStore) (*Server, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("building group registry: %w", err)
	}

	r := chi.NewRouter()

	s := &Server{
		config:   cfg,
		router:   r,
		sessions: handlers.NewSessionRegistry(reg, cfg.Editor.MovementThreshold),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes(detector.NewClient(cfg.Detector.URL), store)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.sessions.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
