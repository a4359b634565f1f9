// Package main implements the entry point for the SmartLearn API server,
// which turns a topic into explanations, stories, flashcards, quizzes and
// keywords and keeps per-user history, bookmarks and study streaks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a database migration command (up, down, status or version) and exit")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd); err != nil {
		fmt.Fprintf(os.Stderr, "smartlearn: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration and either executes a migration command or
// serves HTTP until a shutdown signal arrives.
func run(ctx context.Context, migrateCmd string) error {
	cfg, log, err := initializeApp()
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		return runMigrations(ctx, cfg.Database, migrateCmd, log)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Int("api_keys", len(cfg.LLM.APIKeys)))

	return cfg, log, nil
}
