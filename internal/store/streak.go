package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

// StreakStore persists study streaks and their per-day activity log.
type StreakStore interface {
	// Get returns the user's streak.
	// Returns ErrStreakNotFound when the user has none yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.StudyStreak, error)

	// Upsert inserts or replaces the user's streak row.
	Upsert(ctx context.Context, streak *domain.StudyStreak) error

	// AddLog records a day of activity. Recording the same day twice is a
	// no-op.
	AddLog(ctx context.Context, entry domain.StudyStreakLog) error

	// RecentLogs returns the user's most recent activity days, newest
	// first, at most limit.
	RecentLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.StudyStreakLog, error)
}
