package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

func componentLogger(log *slog.Logger, name string) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With(slog.String("component", name))
}

// UserStore implements store.UserStore on gorm.
type UserStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore.
func NewUserStore(db *gorm.DB, log *slog.Logger) *UserStore {
	return &UserStore{db: db, logger: componentLogger(log, "user_store")}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if user.HashedPassword == "" {
		return domain.ErrEmptyHashedPassword
	}
	m := userModel{
		ID:             user.ID,
		Name:           user.Name,
		Email:          domain.NormalizeEmail(user.Email),
		HashedPassword: user.HashedPassword,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		}
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapError(err)
	}
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (s *UserStore) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	return m.toDomain(), nil
}

// HistoryStore implements store.HistoryStore on gorm.
type HistoryStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore creates a HistoryStore.
func NewHistoryStore(db *gorm.DB, log *slog.Logger) *HistoryStore {
	return &HistoryStore{db: db, logger: componentLogger(log, "history_store")}
}

// Add implements store.HistoryStore.Add.
func (s *HistoryStore) Add(ctx context.Context, entry *domain.SearchHistory) error {
	m := historyModel{
		UserID:         entry.UserID,
		Query:          entry.Query,
		Timestamp:      entry.Timestamp,
		FlashcardCount: entry.FlashcardCount,
		MCQCount:       entry.MCQCount,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	entry.ID = m.ID
	return nil
}

// ListRecent implements store.HistoryStore.ListRecent.
func (s *HistoryStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SearchHistory, error) {
	var rows []historyModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	entries := make([]domain.SearchHistory, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}

// Delete implements store.HistoryStore.Delete.
func (s *HistoryStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&historyModel{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrHistoryNotFound
	}
	return nil
}

// DeleteAll implements store.HistoryStore.DeleteAll.
func (s *HistoryStore) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&historyModel{})
	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "history cleared",
		slog.String("user_id", userID.String()),
		slog.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}

// BookmarkStore implements store.BookmarkStore on gorm.
type BookmarkStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.BookmarkStore = (*BookmarkStore)(nil)

// NewBookmarkStore creates a BookmarkStore.
func NewBookmarkStore(db *gorm.DB, log *slog.Logger) *BookmarkStore {
	return &BookmarkStore{db: db, logger: componentLogger(log, "bookmark_store")}
}

// Create implements store.BookmarkStore.Create.
func (s *BookmarkStore) Create(ctx context.Context, b *domain.Bookmark) error {
	m := bookmarkModel{UserID: b.UserID, Query: b.Query, Timestamp: b.Timestamp}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrBookmarkExists, err)
		}
		return mapError(err)
	}
	b.ID = m.ID
	return nil
}

// GetByQuery implements store.BookmarkStore.GetByQuery.
func (s *BookmarkStore) GetByQuery(ctx context.Context, userID uuid.UUID, query string) (*domain.Bookmark, error) {
	var m bookmarkModel
	err := s.db.WithContext(ctx).Where("user_id = ? AND query = ?", userID, query).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrBookmarkNotFound
		}
		return nil, mapError(err)
	}
	b := m.toDomain()
	return &b, nil
}

// List implements store.BookmarkStore.List.
func (s *BookmarkStore) List(ctx context.Context, userID uuid.UUID) ([]domain.Bookmark, error) {
	var rows []bookmarkModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]domain.Bookmark, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Delete implements store.BookmarkStore.Delete.
func (s *BookmarkStore) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&bookmarkModel{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrBookmarkNotFound
	}
	return nil
}

// StreakStore implements store.StreakStore on gorm.
type StreakStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.StreakStore = (*StreakStore)(nil)

// NewStreakStore creates a StreakStore.
func NewStreakStore(db *gorm.DB, log *slog.Logger) *StreakStore {
	return &StreakStore{db: db, logger: componentLogger(log, "streak_store")}
}

// Get implements store.StreakStore.Get.
func (s *StreakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyStreak, error) {
	var m streakModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrStreakNotFound
		}
		return nil, mapError(err)
	}
	return m.toDomain(), nil
}

// Upsert implements store.StreakStore.Upsert.
func (s *StreakStore) Upsert(ctx context.Context, streak *domain.StudyStreak) error {
	m := streakFromDomain(streak)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_login_date", "current_streak", "longest_streak", "total_logins", "updated_at",
		}),
	}).Create(&m).Error
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save streak",
			slog.String("error", err.Error()),
			slog.String("user_id", streak.UserID.String()))
		return mapError(err)
	}
	return nil
}

// AddLog implements store.StreakStore.AddLog.
func (s *StreakStore) AddLog(ctx context.Context, entry domain.StudyStreakLog) error {
	m := streakLogModel{UserID: entry.UserID, Date: entry.Date}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
	return mapError(err)
}

// RecentLogs implements store.StreakStore.RecentLogs.
func (s *StreakStore) RecentLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.StudyStreakLog, error) {
	var rows []streakLogModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	logs := make([]domain.StudyStreakLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, domain.StudyStreakLog{UserID: r.UserID, Date: r.Date})
	}
	return logs, nil
}
