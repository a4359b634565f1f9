package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartlearn/smartlearn-api/internal/store"
)

// Open connects to the sqlite database at dsn (a file path, ":memory:" or
// a "file:" URI). When migrate is true the schema is created or updated
// with AutoMigrate.
func Open(dsn string, migrate bool, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// sqlite permits one writer; serialising connections avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if migrate {
		if err := db.AutoMigrate(allModels()...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewStores returns every gorm-backed store bound to db.
func NewStores(db *gorm.DB, log *slog.Logger) store.Stores {
	return store.Stores{
		Users:     NewUserStore(db, log),
		History:   NewHistoryStore(db, log),
		Bookmarks: NewBookmarkStore(db, log),
		Streaks:   NewStreakStore(db, log),
	}
}

// Transactor implements store.Transactor with gorm transactions. gorm
// rolls back when fn returns an error or panics.
type Transactor struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor.
func NewTransactor(db *gorm.DB, log *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transactor{db: db, logger: log}
}

// RunInTransaction implements store.Transactor.
func (t *Transactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
}

// mapError converts gorm and sqlite failures to store errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
