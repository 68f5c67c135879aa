// Package server wires the application together: it owns the composition
// root where the database, services, handlers and middleware are
// assembled, the route table, and the serve/shutdown lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/contentguard/internal/auth"
	"github.com/sakif/contentguard/internal/handler"
	"github.com/sakif/contentguard/internal/metrics"
	"github.com/sakif/contentguard/internal/middleware"
	sqliteRepo "github.com/sakif/contentguard/internal/repository/sqlite"
	"github.com/sakif/contentguard/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port            int
	DBPath          string
	AuthProviderURL string // base URL of the identity provider's API
	CookieSecure    bool   // true whenever the deployment serves HTTPS
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown, flushing the WAL and releasing the
// file lock.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer receives interfaces, not concrete types below it; this is
// the only place that knows the whole graph.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	collector := metrics.NewCollector()

	// Global middleware, in order: request ID for tracing, real client IP
	// behind proxies, panic recovery, request logging, request metrics.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(collector.Middleware)

	// One *sqlite.DB implements every repository interface; services
	// receive it as the interfaces they need.
	provider := auth.NewProvider(s.config.AuthProviderURL, nil)
	authService := service.NewAuthService(provider, s.db, s.db, s.logger)
	caseService := service.NewCaseService(s.db, s.db, collector, s.logger)
	statsService := service.NewStatsService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.config.CookieSecure, s.logger)
	caseHandler := handler.NewCaseHandler(caseService, s.logger)
	statsHandler := handler.NewStatsHandler(statsService, s.logger)

	requireAuth := auth.RequireAuth(s.db)

	s.router.Handle("/metrics", collector.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Post("/auth/session", authHandler.HandleCreateSession)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/stats/public", statsHandler.HandlePublic)

		// Everything case-scoped requires a live session.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", authHandler.HandleMe)

			r.Post("/cases", caseHandler.HandleCreate)
			r.Get("/cases", caseHandler.HandleList)
			r.Get("/cases/{id}", caseHandler.HandleGet)
			r.Patch("/cases/{id}", caseHandler.HandleUpdateStatus)
			r.Delete("/cases/{id}", caseHandler.HandleDelete)
			r.Post("/cases/{id}/targets", caseHandler.HandleAddTargets)
			r.Get("/cases/{id}/targets", caseHandler.HandleListTargets)
		})
	})
}

// Router exposes the configured router, mainly for httptest in
// integration-style tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
