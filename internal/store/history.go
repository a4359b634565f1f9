package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

// HistoryStore persists search history. Entries are append-only.
type HistoryStore interface {
	// Add inserts entry and sets its ID.
	Add(ctx context.Context, entry *domain.SearchHistory) error

	// ListRecent returns the user's newest entries first, at most limit.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SearchHistory, error)

	// Delete removes one entry owned by userID.
	// Returns ErrHistoryNotFound when no such entry belongs to the user.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// DeleteAll removes every entry of the user and returns how many.
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// BookmarkStore persists bookmarks, unique per (user, query).
type BookmarkStore interface {
	// Create inserts bookmark and sets its ID.
	// Returns ErrBookmarkExists when the user already saved the query.
	Create(ctx context.Context, bookmark *domain.Bookmark) error

	// GetByQuery returns the user's bookmark for query.
	// Returns ErrBookmarkNotFound if there is none.
	GetByQuery(ctx context.Context, userID uuid.UUID, query string) (*domain.Bookmark, error)

	// List returns the user's bookmarks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error)

	// Delete removes one bookmark owned by userID.
	// Returns ErrBookmarkNotFound when no such bookmark belongs to the user.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}
