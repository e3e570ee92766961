// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency is constructed and wired
// here (sqlite store, workflow, handlers) rather than scattered across
// the codebase. main.go stays minimal; it reads configuration and calls
// New + Start.
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
	"github.com/go-chi/httprate"

	"github.com/LuciuSVN/webcompat.com/internal/auth"
	"github.com/LuciuSVN/webcompat.com/internal/handler"
	"github.com/LuciuSVN/webcompat.com/internal/issues"
	"github.com/LuciuSVN/webcompat.com/internal/middleware"
	sqliteRepo "github.com/LuciuSVN/webcompat.com/internal/repository/sqlite"
	"github.com/LuciuSVN/webcompat.com/internal/workflow"
)

// Config holds everything the server needs, loaded from the environment in
// main.go.
type Config struct {
	Port          int
	DBPath        string
	SessionSecret string

	// IssuesRepo is the "owner/name" of the tracker repository: the API
	// target for filing and the base for confirmation deep links.
	IssuesRepo string

	// ServiceToken is the fixed credential used for proxy (anonymous)
	// reports.
	ServiceToken string

	// IssuesAPIBase overrides the GitHub API root; leave empty outside tests.
	IssuesAPIBase string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency chain and wires the routes.
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTE MAP:
//
//	GET  /                 report form (browser/version pre-filled from UA)
//	POST /                 validate + submit (file now, or stash and go auth)
//	GET  /login            start OAuth, or short-circuit if logged in
//	GET  /callback         OAuth redirect target (provider-driven)
//	GET  /logout           clear user binding + stash
//	GET  /file             post-callback resume (not human-facing)
//	GET  /issues           307 → /
//	GET  /issues/{number}  307 → tracker issue page
//	GET  /thanks/{number}  confirmation (404 if not numeric)
//	GET  /about            static page
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	renderer, err := handler.NewRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	github := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	client := issues.NewClient(issues.Config{
		APIBase:      s.config.IssuesAPIBase,
		Repo:         s.config.IssuesRepo,
		ServiceToken: s.config.ServiceToken,
	})

	flow := workflow.New(s.db, s.db, client, s.logger)

	reports := handler.NewReportHandler(flow, s.db, renderer, s.config.IssuesRepo, s.logger)
	authHandler := handler.NewAuthHandler(github, flow, renderer, s.logger)

	// Global middleware, in order: request ID, real IP, panic recovery,
	// request logging, then the session loader so every handler below gets a
	// session in its context.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(auth.LoadSession(s.db, tokens, s.logger))

	s.router.Get("/", reports.HandleIndex)
	// Submissions cause outbound API calls; keep an abusive client from
	// burning the service token's rate budget.
	s.router.With(httprate.LimitByIP(10, time.Minute)).Post("/", reports.HandleSubmit)

	s.router.Get("/login", authHandler.HandleLogin)
	s.router.Get("/callback", authHandler.HandleCallback)
	s.router.Get("/logout", authHandler.HandleLogout)
	s.router.Get("/file", reports.HandleFilePending)

	s.router.Get("/issues", reports.HandleIssuesIndex)
	s.router.Get("/issues/{number}", reports.HandleShowIssue)
	s.router.Get("/thanks/{number}", reports.HandleThanks)
	s.router.Get("/about", reports.HandleAbout)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderer.NotFound(w)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database.
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
			slog.String("issuesRepo", s.config.IssuesRepo),
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
