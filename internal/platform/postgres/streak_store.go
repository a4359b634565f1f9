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
	selectStreakSQL = `SELECT user_id, last_login_date, current_streak, longest_streak, total_logins, created_at, updated_at FROM study_streaks WHERE user_id = $1`
	upsertStreakSQL = `INSERT INTO study_streaks (user_id, last_login_date, current_streak, longest_streak, total_logins, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (user_id) DO UPDATE SET last_login_date = EXCLUDED.last_login_date, current_streak = EXCLUDED.current_streak, longest_streak = EXCLUDED.longest_streak, total_logins = EXCLUDED.total_logins, updated_at = EXCLUDED.updated_at`
	insertLogSQL    = `INSERT INTO study_streak_logs (user_id, date) VALUES ($1, $2) ON CONFLICT (user_id, date) DO NOTHING`
	recentLogsSQL   = `SELECT user_id, date FROM study_streak_logs WHERE user_id = $1 ORDER BY date DESC LIMIT $2`
)

// PostgresStreakStore implements store.StreakStore.
type PostgresStreakStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ store.StreakStore = (*PostgresStreakStore)(nil)

// NewPostgresStreakStore creates a streak store on db.
func NewPostgresStreakStore(db DBTX, log *slog.Logger) *PostgresStreakStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresStreakStore{db: db, logger: log.With(slog.String("component", "streak_store"))}
}

// Get implements store.StreakStore.Get.
func (s *PostgresStreakStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyStreak, error) {
	var st domain.StudyStreak
	err := s.db.QueryRow(ctx, selectStreakSQL, userID).Scan(
		&st.UserID,
		&st.LastLoginDate,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.TotalLogins,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrStreakNotFound
		}
		return nil, MapError(err)
	}
	return &st, nil
}

// Upsert implements store.StreakStore.Upsert.
func (s *PostgresStreakStore) Upsert(ctx context.Context, st *domain.StudyStreak) error {
	_, err := s.db.Exec(ctx, upsertStreakSQL,
		st.UserID,
		st.LastLoginDate,
		st.CurrentStreak,
		st.LongestStreak,
		st.TotalLogins,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to save streak",
			slog.String("error", err.Error()),
			slog.String("user_id", st.UserID.String()))
		return MapError(err)
	}
	return nil
}

// AddLog implements store.StreakStore.AddLog.
func (s *PostgresStreakStore) AddLog(ctx context.Context, entry domain.StudyStreakLog) error {
	if _, err := s.db.Exec(ctx, insertLogSQL, entry.UserID, entry.Date); err != nil {
		return MapError(err)
	}
	return nil
}

// RecentLogs implements store.StreakStore.RecentLogs.
func (s *PostgresStreakStore) RecentLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.StudyStreakLog, error) {
	rows, err := s.db.Query(ctx, recentLogsSQL, userID, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	logs := make([]domain.StudyStreakLog, 0)
	for rows.Next() {
		var l domain.StudyStreakLog
		if err := rows.Scan(&l.UserID, &l.Date); err != nil {
			return nil, MapError(err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return logs, nil
}
