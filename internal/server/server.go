// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go creates:  config.Store → sqlite.DB → Server
//	Server.New wires: sqlite.DB → CollectionService → GameHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hostcart/internal/config"
	"github.com/sakif/hostcart/internal/handler"
	"github.com/sakif/hostcart/internal/middleware"
	sqliteRepo "github.com/sakif/hostcart/internal/repository/sqlite"
	"github.com/sakif/hostcart/internal/service"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int

	// ShutdownTimeout bounds how long in-flight requests may take to
	// finish after a shutdown signal. Zero means 30 seconds.
	ShutdownTimeout time.Duration
}

// ConfigFromStore reads the server section of the configuration store.
func ConfigFromStore(cfg *config.Store) (Config, error) {
	sc, err := cfg.Server()
	if err != nil {
		return Config{}, fmt.Errorf("reading server config: %w", err)
	}
	return Config{Host: sc.Host, Port: sc.Port}, nil
}

// Addr is the listen address, host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). It is closed when Start
// returns so pending WAL writes are checkpointed and the file is released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the service and handlers on top of db and returns a Server
// ready to Start. The Server takes ownership of db.
func New(cfg Config, db *sqliteRepo.DB, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                          → database liveness
// GET    /api/games[?status=&tag=]         → list the collection
// POST   /api/games                        → add a game
// GET    /api/games/{gameID}               → one game
// PUT    /api/games/{gameID}               → edit user fields
// DELETE /api/games/{gameID}               → remove a game
// POST   /api/games/{gameID}/tags          → add a tag
// DELETE /api/games/{gameID}/tags/{tag}    → remove a tag
// POST   /api/games/{gameID}/playtime      → record a play session
// POST   /api/games/{gameID}/complete      → mark completed
//
// MIDDLEWARE ORDER MATTERS:
// RequestID, RealIP and Recoverer run first, then our request logger.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	s.router.Get("/healthz", healthHandler.HandleHealth)

	// The handler never touches the database directly, and the service
	// never touches HTTP.
	collectionService := service.NewCollectionService(s.db, s.logger)
	gameHandler := handler.NewGameHandler(collectionService, s.logger)

	s.router.Route("/api/games", func(r chi.Router) {
		r.Get("/", gameHandler.HandleList)
		r.Post("/", gameHandler.HandleCreate)
		r.Get("/{gameID}", gameHandler.HandleGet)
		r.Put("/{gameID}", gameHandler.HandleUpdate)
		r.Delete("/{gameID}", gameHandler.HandleDelete)
		r.Post("/{gameID}/tags", gameHandler.HandleAddTag)
		r.Delete("/{gameID}/tags/{tag}", gameHandler.HandleRemoveTag)
		r.Post("/{gameID}/playtime", gameHandler.HandleRecordPlaytime)
		r.Post("/{gameID}/complete", gameHandler.HandleComplete)
	})
}

// Start runs the HTTP server until SIGINT or SIGTERM and then shuts down
// gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (ShutdownTimeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.db.Path()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
