package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

const (
	insertHistorySQL    = `INSERT INTO search_history (user_id, query, timestamp, flashcard_count, mcq_count) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	listHistorySQL      = `SELECT id, user_id, query, timestamp, flashcard_count, mcq_count FROM search_history WHERE user_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`
	deleteHistorySQL    = `DELETE FROM search_history WHERE id = $1 AND user_id = $2`
	deleteAllHistorySQL = `DELETE FROM search_history WHERE user_id = $1`

	insertBookmarkSQL     = `INSERT INTO bookmarks (user_id, query, timestamp) VALUES ($1, $2, $3) RETURNING id`
	selectBookmarkByQuery = `SELECT id, user_id, query, timestamp FROM bookmarks WHERE user_id = $1 AND query = $2`
	listBookmarksSQL      = `SELECT id, user_id, query, timestamp FROM bookmarks WHERE user_id = $1 ORDER BY timestamp DESC, id DESC`
	deleteBookmarkSQL     = `DELETE FROM bookmarks WHERE id = $1 AND user_id = $2`
)

// PostgresHistoryStore implements store.HistoryStore.
type PostgresHistoryStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.HistoryStore = (*PostgresHistoryStore)(nil)

// NewPostgresHistoryStore creates a history store on db.
func NewPostgresHistoryStore(db DBTX, log *slog.Logger) *PostgresHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresHistoryStore{db: db, logger: log.With(slog.String("component", "history_store"))}
}

// Add implements store.HistoryStore.Add.
func (s *PostgresHistoryStore) Add(ctx context.Context, entry *domain.SearchHistory) error {
	err := s.db.QueryRow(ctx, insertHistorySQL,
		entry.UserID,
		entry.Query,
		entry.Timestamp,
		entry.FlashcardCount,
		entry.MCQCount,
	).Scan(&entry.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to add history entry",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()))
		return MapError(err)
	}
	return nil
}

// ListRecent implements store.HistoryStore.ListRecent.
func (s *PostgresHistoryStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SearchHistory, error) {
	rows, err := s.db.Query(ctx, listHistorySQL, userID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	entries := make([]domain.SearchHistory, 0)
	for rows.Next() {
		var h domain.SearchHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Query, &h.Timestamp, &h.FlashcardCount, &h.MCQCount); err != nil {
			return nil, MapError(err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return entries, nil
}

// Delete implements store.HistoryStore.Delete.
func (s *PostgresHistoryStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := s.db.Exec(ctx, deleteHistorySQL, id, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrHistoryNotFound)
}

// DeleteAll implements store.HistoryStore.DeleteAll.
func (s *PostgresHistoryStore) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteAllHistorySQL, userID)
	if err != nil {
		return 0, MapError(err)
	}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "history cleared",
		slog.String("user_id", userID.String()),
		slog.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

// PostgresBookmarkStore implements store.BookmarkStore.
type PostgresBookmarkStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.BookmarkStore = (*PostgresBookmarkStore)(nil)

// NewPostgresBookmarkStore creates a bookmark store on db.
func NewPostgresBookmarkStore(db DBTX, log *slog.Logger) *PostgresBookmarkStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresBookmarkStore{db: db, logger: log.With(slog.String("component", "bookmark_store"))}
}

// Create implements store.BookmarkStore.Create.
func (s *PostgresBookmarkStore) Create(ctx context.Context, b *domain.Bookmark) error {
	err := s.db.QueryRow(ctx, insertBookmarkSQL, b.UserID, b.Query, b.Timestamp).Scan(&b.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrBookmarkExists)
		}
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to create bookmark",
			slog.String("error", err.Error()),
			slog.String("user_id", b.UserID.String()))
		return MapError(err)
	}
	return nil
}

// GetByQuery implements store.BookmarkStore.GetByQuery.
func (s *PostgresBookmarkStore) GetByQuery(ctx context.Context, userID uuid.UUID, query string) (*domain.Bookmark, error) {
	var b domain.Bookmark
	err := s.db.QueryRow(ctx, selectBookmarkByQuery, userID, query).Scan(&b.ID, &b.UserID, &b.Query, &b.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrBookmarkNotFound
		}
		return nil, MapError(err)
	}
	return &b, nil
}

// List implements store.BookmarkStore.List.
func (s *PostgresBookmarkStore) List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	rows, err := s.db.Query(ctx, listBookmarksSQL, userID)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	bookmarks := make([]domain.Bookmark, 0)
	for rows.Next() {
		var b domain.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Query, &b.Timestamp); err != nil {
			return nil, MapError(err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return bookmarks, nil
}

// Delete implements store.BookmarkStore.Delete.
func (s *PostgresBookmarkStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := s.db.Exec(ctx, deleteBookmarkSQL, id, userID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrBookmarkNotFound)
}
