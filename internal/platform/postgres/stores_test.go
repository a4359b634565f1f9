package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserStoreCreate(t *testing.T) {
	query := regexp.QuoteMeta(insertUserSQL)
	user := &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "Ada@Example.com",
		HashedPassword: "hash",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	tests := []struct {
		name    string
		mock    func(m pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "success",
			mock: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(query).
					WithArgs(user.ID, user.Name, "ada@example.com", user.HashedPassword, user.CreatedAt, user.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "email taken",
			mock: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(query).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
			},
			wantErr: store.ErrEmailExists,
		},
		{
			name: "db error",
			mock: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(query).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.mock(mock)

			err := NewPostgresUserStore(mock, nil).Create(context.Background(), user)
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tt.wantErr, store.ErrEmailExists):
				assert.ErrorIs(t, err, store.ErrEmailExists)
			default:
				assert.EqualError(t, err, tt.wantErr.Error())
			}
		})
	}
}

func TestUserStoreCreateRequiresHash(t *testing.T) {
	mock := newMock(t)
	err := NewPostgresUserStore(mock, nil).Create(context.Background(), &domain.User{ID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrEmptyHashedPassword)
}

func TestUserStoreGetByEmail(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "name", "email", "hashed_password", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmail)).
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Ada", "ada@example.com", "hash", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmail)).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresUserStore(mock, nil)

	u, err := s.GetByEmail(context.Background(), "  ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.HashedPassword)

	_, err = s.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStoreGetByID(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByID)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewPostgresUserStore(mock, nil).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestHistoryStoreAddAndList(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(insertHistorySQL)).
		WithArgs(userID, "photosynthesis", pgxmock.AnyArg(), 5, 4).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	cols := []string{"id", "user_id", "query", "timestamp", "flashcard_count", "mcq_count"}
	mock.ExpectQuery(regexp.QuoteMeta(listHistorySQL)).
		WithArgs(userID, domain.HistoryLimit).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(7), userID, "photosynthesis", now, 5, 4).
			AddRow(int64(3), userID, "mitosis", now.Add(-time.Hour), 0, 0))

	s := NewPostgresHistoryStore(mock, nil)

	entry := &domain.SearchHistory{UserID: userID, Query: "photosynthesis", Timestamp: now, FlashcardCount: 5, MCQCount: 4}
	require.NoError(t, s.Add(context.Background(), entry))
	assert.Equal(t, int64(7), entry.ID)

	entries, err := s.ListRecent(context.Background(), userID, domain.HistoryLimit)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "photosynthesis", entries[0].Query)
	assert.Equal(t, 5, entries[0].FlashcardCount)
	assert.Equal(t, "mitosis", entries[1].Query)
}

func TestHistoryStoreListEmpty(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(listHistorySQL)).
		WithArgs(userID, 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "query", "timestamp", "flashcard_count", "mcq_count"}))

	entries, err := NewPostgresHistoryStore(mock, nil).ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestHistoryStoreDelete(t *testing.T) {
	userID := uuid.New()
	query := regexp.QuoteMeta(deleteHistorySQL)

	tests := []struct {
		name    string
		mock    func(m pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "deleted",
			mock: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(query).WithArgs(int64(1), userID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "not found",
			mock: func(m pgxmock.PgxPoolIface) {
				m.ExpectExec(query).WithArgs(int64(1), userID).WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: store.ErrHistoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.mock(mock)

			err := NewPostgresHistoryStore(mock, nil).Delete(context.Background(), userID, 1)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHistoryStoreDeleteAll(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(deleteAllHistorySQL)).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := NewPostgresHistoryStore(mock, nil).DeleteAll(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBookmarkStoreCreate(t *testing.T) {
	userID := uuid.New()
	query := regexp.QuoteMeta(insertBookmarkSQL)

	t.Run("created", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(query).
			WithArgs(userID, "gravity", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

		b := &domain.Bookmark{UserID: userID, Query: "gravity", Timestamp: time.Now().UTC()}
		require.NoError(t, NewPostgresBookmarkStore(mock, nil).Create(context.Background(), b))
		assert.Equal(t, int64(11), b.ID)
	})

	t.Run("duplicate", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(query).
			WithArgs(userID, "gravity", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

		b := &domain.Bookmark{UserID: userID, Query: "gravity", Timestamp: time.Now().UTC()}
		err := NewPostgresBookmarkStore(mock, nil).Create(context.Background(), b)
		assert.ErrorIs(t, err, store.ErrBookmarkExists)
	})
}

func TestBookmarkStoreLookups(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()
	now := time.Now().UTC()
	cols := []string{"id", "user_id", "query", "timestamp"}

	mock.ExpectQuery(regexp.QuoteMeta(selectBookmarkByQuery)).
		WithArgs(userID, "gravity").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(2), userID, "gravity", now))
	mock.ExpectQuery(regexp.QuoteMeta(selectBookmarkByQuery)).
		WithArgs(userID, "entropy").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(listBookmarksSQL)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(2), userID, "gravity", now))
	mock.ExpectExec(regexp.QuoteMeta(deleteBookmarkSQL)).
		WithArgs(int64(9), userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	s := NewPostgresBookmarkStore(mock, nil)
	ctx := context.Background()

	b, err := s.GetByQuery(ctx, userID, "gravity")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.ID)

	_, err = s.GetByQuery(ctx, userID, "entropy")
	assert.ErrorIs(t, err, store.ErrBookmarkNotFound)

	list, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, s.Delete(ctx, userID, 9), store.ErrBookmarkNotFound)
}

func TestStreakStore(t *testing.T) {
	mock := newMock(t)
	userID := uuid.New()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectStreakSQL)).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(upsertStreakSQL)).
		WithArgs(userID, day, 1, 1, 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertLogSQL)).
		WithArgs(userID, day).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectStreakSQL)).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "last_login_date", "current_streak", "longest_streak", "total_logins", "created_at", "updated_at"}).
			AddRow(userID, day, 1, 1, 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(recentLogsSQL)).
		WithArgs(userID, 30).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "date"}).AddRow(userID, day))

	s := NewPostgresStreakStore(mock, nil)
	ctx := context.Background()

	_, err := s.Get(ctx, userID)
	assert.ErrorIs(t, err, store.ErrStreakNotFound)

	require.NoError(t, s.Upsert(ctx, &domain.StudyStreak{
		UserID: userID, LastLoginDate: day, CurrentStreak: 1, LongestStreak: 1, TotalLogins: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.AddLog(ctx, domain.StudyStreakLog{UserID: userID, Date: day}))

	got, err := s.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.True(t, got.LastLoginDate.Equal(day))

	logs, err := s.RecentLogs(ctx, userID, 30)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Date.Equal(day))
}

func TestTransactorCommitsAndRollsBack(t *testing.T) {
	userID := uuid.New()

	t.Run("commit", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(deleteAllHistorySQL)).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectCommit()

		err := NewTransactor(mock, nil).RunInTransaction(context.Background(), func(ctx context.Context, s store.Stores) error {
			_, err := s.History.DeleteAll(ctx, userID)
			return err
		})
		assert.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		sentinel := errors.New("boom")
		err := NewTransactor(mock, nil).RunInTransaction(context.Background(), func(context.Context, store.Stores) error {
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.PanicsWithValue(t, "kaboom", func() {
			_ = NewTransactor(mock, nil).RunInTransaction(context.Background(), func(context.Context, store.Stores) error {
				panic("kaboom")
			})
		})
	})

	t.Run("begin fails", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		err := NewTransactor(mock, nil).RunInTransaction(context.Background(), func(context.Context, store.Stores) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})
}
