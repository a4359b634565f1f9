package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// HistoryService manages a user's search history.
type HistoryService interface {
	// Save records a search. Entries are never updated afterwards.
	Save(ctx context.Context, userID uuid.UUID, query string, flashcards, mcqs int) (*domain.SearchHistory, error)

	// List returns the newest domain.HistoryLimit entries.
	List(ctx context.Context, userID uuid.UUID) ([]domain.SearchHistory, error)

	// Delete removes one entry. Entries owned by other users are reported
	// as store.ErrHistoryNotFound.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// Clear removes every entry and returns how many were deleted.
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
}

// BookmarkService manages saved queries.
type BookmarkService interface {
	// Add bookmarks query. Bookmarking an existing query returns the stored
	// bookmark with created=false.
	Add(ctx context.Context, userID uuid.UUID, query string) (b *domain.Bookmark, created bool, err error)

	// List returns all bookmarks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error)

	// Delete removes a bookmark owned by the user.
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

type historyServiceImpl struct {
	store  store.HistoryStore
	logger *slog.Logger
}

var _ HistoryService = (*historyServiceImpl)(nil)

// NewHistoryService creates a HistoryService.
func NewHistoryService(s store.HistoryStore, log *slog.Logger) HistoryService {
	if log == nil {
		log = slog.Default()
	}
	return &historyServiceImpl{store: s, logger: log.With(slog.String("component", "history_service"))}
}

func (s *historyServiceImpl) Save(ctx context.Context, userID uuid.UUID, query string, flashcards, mcqs int) (*domain.SearchHistory, error) {
	entry, err := domain.NewSearchHistory(userID, query, flashcards, mcqs)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, entry); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save history entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("history", "save", err)
	}
	return entry, nil
}

func (s *historyServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.SearchHistory, error) {
	entries, err := s.store.ListRecent(ctx, userID, domain.HistoryLimit)
	if err != nil {
		return nil, NewServiceError("history", "list", err)
	}
	return entries, nil
}

func (s *historyServiceImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrHistoryNotFound) {
			return err
		}
		return NewServiceError("history", "delete", err)
	}
	return nil
}

func (s *historyServiceImpl) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.DeleteAll(ctx, userID)
	if err != nil {
		return 0, NewServiceError("history", "clear", err)
	}
	return n, nil
}

type bookmarkServiceImpl struct {
	store  store.BookmarkStore
	logger *slog.Logger
}

var _ BookmarkService = (*bookmarkServiceImpl)(nil)

// NewBookmarkService creates a BookmarkService.
func NewBookmarkService(s store.BookmarkStore, log *slog.Logger) BookmarkService {
	if log == nil {
		log = slog.Default()
	}
	return &bookmarkServiceImpl{store: s, logger: log.With(slog.String("component", "bookmark_service"))}
}

func (s *bookmarkServiceImpl) Add(ctx context.Context, userID uuid.UUID, query string) (*domain.Bookmark, bool, error) {
	b, err := domain.NewBookmark(userID, query)
	if err != nil {
		return nil, false, err
	}

	err = s.store.Create(ctx, b)
	switch {
	case err == nil:
		return b, true, nil
	case errors.Is(err, store.ErrBookmarkExists):
		existing, getErr := s.store.GetByQuery(ctx, userID, b.Query)
		if getErr != nil {
			return nil, false, NewServiceError("bookmark", "add", getErr)
		}
		return existing, false, nil
	default:
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save bookmark",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, false, NewServiceError("bookmark", "add", err)
	}
}

func (s *bookmarkServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, NewServiceError("bookmark", "list", err)
	}
	return list, nil
}

func (s *bookmarkServiceImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrBookmarkNotFound) {
			return err
		}
		return NewServiceError("bookmark", "delete", err)
	}
	return nil
}
