package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartlearn/smartlearn-api/internal/api"
	"github.com/smartlearn/smartlearn-api/internal/cache"
	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/generation"
	"github.com/smartlearn/smartlearn-api/internal/generation/prompts"
	"github.com/smartlearn/smartlearn-api/internal/platform/gemini"
	"github.com/smartlearn/smartlearn-api/internal/service"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
	"github.com/smartlearn/smartlearn-api/internal/study"
)

// application holds the shared dependencies so they can be wired once and
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	data       *dataLayer
	cacheClose func() error

	jwtService       auth.JWTService
	userService      service.UserService
	streakService    service.StreakService
	historyService   service.HistoryService
	bookmarkService  service.BookmarkService
	generationClient *generation.Client
	studyService     *study.Service
}

// newApplication connects the stores and builds every service. Resources
// opened before a failure are released before the error is returned.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (app *application, err error) {
	app = &application{config: cfg, logger: log}
	defer func() {
		if err != nil {
			app.cleanup()
			app = nil
		}
	}()

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return app, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	log.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.data, err = openDataLayer(ctx, cfg.Database, log)
	if err != nil {
		return app, err
	}

	loc, err := cfg.Streak.Location()
	if err != nil {
		return app, fmt.Errorf("invalid streak timezone %q: %w", cfg.Streak.Timezone, err)
	}
	app.streakService = service.NewStreakService(app.data.tx, loc, log)
	app.userService = service.NewUserService(
		app.data.stores.Users,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		app.streakService,
		log,
	)
	app.historyService = service.NewHistoryService(app.data.stores.History, log)
	app.bookmarkService = service.NewBookmarkService(app.data.stores.Bookmarks, log)

	cacheStore, cacheClose, err := cache.Open(ctx, cfg.Cache, log)
	app.cacheClose = cacheClose
	if err != nil {
		return app, fmt.Errorf("failed to open %s cache: %w", cfg.Cache.Backend, err)
	}

	app.generationClient, err = generation.NewClient(cfg.LLM, gemini.NewBackend(gemini.Options{}, log), log)
	if err != nil {
		return app, fmt.Errorf("failed to initialize generation client: %w", err)
	}

	lib, err := prompts.New(cfg.LLM.PromptDir)
	if err != nil {
		return app, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	app.studyService, err = study.NewService(
		app.generationClient,
		app.generationClient.Quota(),
		cacheStore,
		lib,
		study.Config{TTL: cfg.Cache.TTL(), BatchPause: cfg.LLM.BatchPause},
		log,
	)
	if err != nil {
		return app, fmt.Errorf("failed to create study service: %w", err)
	}

	log.Info("application initialized",
		slog.String("model", app.generationClient.Model()))
	return app, nil
}

var _ api.StudyService = (*study.Service)(nil)

// Run serves HTTP until shutdown and then releases all resources.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the cache and database connections.
func (app *application) cleanup() {
	if app.cacheClose != nil {
		if err := app.cacheClose(); err != nil {
			app.logger.Error("error closing cache", slog.String("error", err.Error()))
		}
	}
	if app.data != nil {
		if err := app.data.close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
