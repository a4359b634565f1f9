package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/platform/gormstore"
	"github.com/smartlearn/smartlearn-api/internal/platform/postgres"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

const pingTimeout = 5 * time.Second

// dataLayer bundles the stores for the configured driver with the
// transactor and the function that releases the connection.
type dataLayer struct {
	stores store.Stores
	tx     store.Transactor
	close  func() error
}

// openDataLayer connects to the configured database. With AutoMigrate set,
// the schema is brought up to date before the stores are returned.
func openDataLayer(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*dataLayer, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := openPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, "up", log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &dataLayer{
			stores: postgres.NewStores(pool, log),
			tx:     postgres.NewTransactor(pool, log),
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case "sqlite":
		db, err := gormstore.Open(cfg.URL, cfg.AutoMigrate, log)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite database opened", slog.String("path", cfg.URL))
		return &dataLayer{
			stores: gormstore.NewStores(db, log),
			tx:     gormstore.NewTransactor(db, log),
			close:  func() error { return gormstore.Close(db) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// openPostgresPool creates a pgx pool and verifies it with a ping.
func openPostgresPool(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established", slog.Int("max_conns", int(poolCfg.MaxConns)))
	return pool, nil
}

// runMigrations executes a migration command and exits. PostgreSQL runs the
// embedded goose migrations; sqlite only supports "up", which applies the
// gorm schema.
func runMigrations(ctx context.Context, cfg config.DatabaseConfig, command string, log *slog.Logger) error {
	switch cfg.Driver {
	case "postgres":
		pool, err := openPostgresPool(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		return postgres.Migrate(ctx, pool, command, log)

	case "sqlite":
		if command != "up" {
			return fmt.Errorf("migration command %q is not supported for sqlite", command)
		}
		db, err := gormstore.Open(cfg.URL, true, log)
		if err != nil {
			return err
		}
		return gormstore.Close(db)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
