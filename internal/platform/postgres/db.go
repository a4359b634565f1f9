package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock,
// so stores run unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a DBTX that can also open transactions.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewStores returns every PostgreSQL store bound to db.
func NewStores(db DBTX, log *slog.Logger) store.Stores {
	return store.Stores{
		Users:     NewPostgresUserStore(db, log),
		History:   NewPostgresHistoryStore(db, log),
		Bookmarks: NewPostgresBookmarkStore(db, log),
		Streaks:   NewPostgresStreakStore(db, log),
	}
}

// Transactor implements store.Transactor on a pgx connection pool.
type Transactor struct {
	db     DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor.
func NewTransactor(db DB, log *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transactor{db: db, logger: log}
}

// RunInTransaction executes fn with stores bound to a new transaction.
// If fn returns an error or panics, the transaction is rolled back.
// Otherwise, it is committed.
func (t *Transactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	log := logger.FromContextOrDefault(ctx, t.logger)

	tx, err := t.db.Begin(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %w", store.ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.ErrorContext(ctx, "failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			} else {
				log.ErrorContext(ctx, "rolled back transaction after panic", slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, NewStores(tx, t.logger)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.ErrorContext(ctx, "failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		log.DebugContext(ctx, "rolled back transaction due to error", slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.ErrorContext(ctx, "failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %w", store.ErrTransactionFailed, err)
	}
	return nil
}
