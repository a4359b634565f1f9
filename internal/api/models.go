package api

import (
	"context"

	"github.com/smartlearn/smartlearn-api/internal/cache"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/generation"
)

// StudyService generates study content. *study.Service implements it.
type StudyService interface {
	GenerateAll(ctx context.Context, topic, content string, includeStory bool) (*domain.StudyPack, error)
	Explain(ctx context.Context, topic string) (string, error)
	Story(ctx context.Context, concept, tone string) (string, error)
	Flashcards(ctx context.Context, topic, content string) ([]domain.Flashcard, error)
	MCQs(ctx context.Context, topic, content string) ([]domain.MCQ, error)
	Keywords(ctx context.Context, topic, content string) ([]domain.Keyword, error)
	QuotaSnapshot() generation.QuotaSnapshot
	CacheStats(ctx context.Context) (cache.Stats, error)
	ClearCache(ctx context.Context) (int, error)
}

// SignUpRequest is the payload of POST /api/auth/signup.
type SignUpRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInRequest is the payload of POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ContentRequest is the optional body of the single-type generators.
type ContentRequest struct {
	Content string `json:"content"`
}

// HistoryRequest is the payload of POST /api/history.
type HistoryRequest struct {
	Query          string `json:"query"           validate:"required,max=255"`
	FlashcardCount int    `json:"flashcard_count" validate:"gte=0"`
	MCQCount       int    `json:"mcq_count"       validate:"gte=0"`
}

// BookmarkRequest is the payload of POST /api/bookmarks.
type BookmarkRequest struct {
	Query string `json:"query" validate:"required,max=255"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func userToResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

// StreakResponse is the public view of a study streak.
type StreakResponse struct {
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	TotalLogins   int    `json:"total_logins"`
	LastLoginDate string `json:"last_login_date,omitempty"`
}

func streakToResponse(s *domain.StudyStreak) *StreakResponse {
	if s == nil {
		return nil
	}
	resp := &StreakResponse{
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		TotalLogins:   s.TotalLogins,
	}
	if !s.LastLoginDate.IsZero() {
		resp.LastLoginDate = s.LastLoginDate.Format(dateLayout)
	}
	return resp
}

const dateLayout = "2006-01-02"
