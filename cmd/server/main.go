// Package main is the entry point for the webcompat reporter server.
//
// main stays minimal: read configuration, build the logger, hand everything
// to internal/server. All actual logic lives in imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/LuciuSVN/webcompat.com/internal/server"
)

func main() {
	// Optional .env for local development; in production the environment is
	// set by the deployment.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/webcompat.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// SESSION_SECRET signs the session cookie. Generate one with:
	//   SESSION_SECRET=$(openssl rand -hex 32)
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Error("SESSION_SECRET not set")
		os.Exit(1)
	}

	issuesRepo := os.Getenv("ISSUES_REPO")
	if issuesRepo == "" {
		issuesRepo = "webcompat/web-bugs"
	}

	callbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/callback", port)
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		SessionSecret:      sessionSecret,
		IssuesRepo:         issuesRepo,
		ServiceToken:       os.Getenv("BOT_TOKEN"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  callbackURL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
