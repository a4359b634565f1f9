package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// RecentStreakDays bounds the activity days returned by GetStreak.
const RecentStreakDays = 30

// StreakSummary is a user's streak plus their most recent active days,
// newest first.
type StreakSummary struct {
	Streak     domain.StudyStreak `json:"streak"`
	RecentDays []time.Time        `json:"recent_days"`
}

// StreakService records daily activity and reports study streaks.
type StreakService interface {
	// RecordActivity applies today's activity to the user's streak and logs
	// the day. Repeated calls on the same day leave the streak unchanged.
	RecordActivity(ctx context.Context, userID uuid.UUID) (*domain.StudyStreak, error)

	// GetStreak returns the streak and up to RecentStreakDays logged days.
	// A user without activity gets a zero streak.
	GetStreak(ctx context.Context, userID uuid.UUID) (*StreakSummary, error)
}

type streakServiceImpl struct {
	tx     store.Transactor
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

var _ StreakService = (*streakServiceImpl)(nil)

// NewStreakService creates a StreakService. Calendar days are taken in loc;
// nil means UTC.
func NewStreakService(tx store.Transactor, loc *time.Location, log *slog.Logger) StreakService {
	if tx == nil {
		panic("transactor cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &streakServiceImpl{
		tx:     tx,
		loc:    loc,
		now:    time.Now,
		logger: log.With(slog.String("component", "streak_service")),
	}
}

// RecordActivity implements StreakService.
func (s *streakServiceImpl) RecordActivity(ctx context.Context, userID uuid.UUID) (*domain.StudyStreak, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	today := domain.CalendarDate(s.now(), s.loc)

	var result domain.StudyStreak
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, st store.Stores) error {
		prev, err := st.Streaks.Get(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrStreakNotFound) {
			return err
		}

		next, changed := domain.AdvanceStreak(prev, userID, today)
		result = next
		if !changed {
			return nil
		}
		if err := st.Streaks.Upsert(ctx, &next); err != nil {
			return err
		}
		return st.Streaks.AddLog(ctx, domain.StudyStreakLog{UserID: userID, Date: today})
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to record study activity",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("streak", "record_activity", err)
	}

	log.DebugContext(ctx, "study activity recorded",
		slog.String("user_id", userID.String()),
		slog.Int("current_streak", result.CurrentStreak))
	return &result, nil
}

// GetStreak implements StreakService.
func (s *streakServiceImpl) GetStreak(ctx context.Context, userID uuid.UUID) (*StreakSummary, error) {
	summary := &StreakSummary{RecentDays: []time.Time{}}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, st store.Stores) error {
		streak, err := st.Streaks.Get(ctx, userID)
		switch {
		case errors.Is(err, store.ErrStreakNotFound):
			return nil
		case err != nil:
			return err
		}
		summary.Streak = *streak

		logs, err := st.Streaks.RecentLogs(ctx, userID, RecentStreakDays)
		if err != nil {
			return err
		}
		for _, l := range logs {
			summary.RecentDays = append(summary.RecentDays, l.Date)
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("streak", "get", err)
	}
	return summary, nil
}
