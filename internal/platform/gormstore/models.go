package gormstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

// userModel mirrors the users table.
type userModel struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey"`
	Name           string    `gorm:"not null"`
	Email          string    `gorm:"not null;uniqueIndex"`
	HashedPassword string    `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userModel) TableName() string { return "users" }

func (m userModel) toDomain() *domain.User {
	return &domain.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type historyModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	UserID         uuid.UUID `gorm:"type:text;not null;index:idx_search_history_user_time,priority:1"`
	Query          string    `gorm:"not null;size:255"`
	Timestamp      time.Time `gorm:"not null;index:idx_search_history_user_time,priority:2"`
	FlashcardCount int       `gorm:"not null;default:0"`
	MCQCount       int       `gorm:"column:mcq_count;not null;default:0"`
}

func (historyModel) TableName() string { return "search_history" }

func (m historyModel) toDomain() domain.SearchHistory {
	return domain.SearchHistory{
		ID:             m.ID,
		UserID:         m.UserID,
		Query:          m.Query,
		Timestamp:      m.Timestamp,
		FlashcardCount: m.FlashcardCount,
		MCQCount:       m.MCQCount,
	}
}

type bookmarkModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_bookmarks_user_query,priority:1"`
	Query     string    `gorm:"not null;size:255;uniqueIndex:idx_bookmarks_user_query,priority:2"`
	Timestamp time.Time `gorm:"not null"`
}

func (bookmarkModel) TableName() string { return "bookmarks" }

func (m bookmarkModel) toDomain() domain.Bookmark {
	return domain.Bookmark{ID: m.ID, UserID: m.UserID, Query: m.Query, Timestamp: m.Timestamp}
}

type streakModel struct {
	UserID        uuid.UUID `gorm:"type:text;primaryKey"`
	LastLoginDate time.Time `gorm:"not null"`
	CurrentStreak int       `gorm:"not null;default:0"`
	LongestStreak int       `gorm:"not null;default:0"`
	TotalLogins   int       `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (streakModel) TableName() string { return "study_streaks" }

func (m streakModel) toDomain() *domain.StudyStreak {
	return &domain.StudyStreak{
		UserID:        m.UserID,
		LastLoginDate: m.LastLoginDate,
		CurrentStreak: m.CurrentStreak,
		LongestStreak: m.LongestStreak,
		TotalLogins:   m.TotalLogins,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func streakFromDomain(s *domain.StudyStreak) streakModel {
	return streakModel{
		UserID:        s.UserID,
		LastLoginDate: s.LastLoginDate,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		TotalLogins:   s.TotalLogins,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

type streakLogModel struct {
	ID     int64     `gorm:"primaryKey;autoIncrement"`
	UserID uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_streak_logs_user_date,priority:1"`
	Date   time.Time `gorm:"not null;uniqueIndex:idx_streak_logs_user_date,priority:2"`
}

func (streakLogModel) TableName() string { return "study_streak_logs" }

// allModels lists every table AutoMigrate manages.
func allModels() []any {
	return []any{&userModel{}, &historyModel{}, &bookmarkModel{}, &streakModel{}, &streakLogModel{}}
}
