package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxQueryLength bounds stored search and bookmark queries.
const MaxQueryLength = 255

// HistoryLimit is the number of entries returned when listing history.
const HistoryLimit = 50

// SearchHistory records one topic searched by a user. Entries are never
// updated after creation.
type SearchHistory struct {
	ID             int64     `json:"id"`
	UserID         uuid.UUID `json:"-"`
	Query          string    `json:"query"`
	Timestamp      time.Time `json:"timestamp"`
	FlashcardCount int       `json:"flashcard_count"`
	MCQCount       int       `json:"mcq_count"`
}

// NewSearchHistory validates and builds a history entry stamped with now.
func NewSearchHistory(userID uuid.UUID, query string, flashcards, mcqs int) (*SearchHistory, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUserID)
	}
	if flashcards < 0 || mcqs < 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrNegativeCount)
	}
	return &SearchHistory{
		UserID:         userID,
		Query:          q,
		Timestamp:      time.Now().UTC(),
		FlashcardCount: flashcards,
		MCQCount:       mcqs,
	}, nil
}

// Bookmark is a saved query. A user holds at most one bookmark per query.
type Bookmark struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBookmark validates and builds a bookmark stamped with now.
func NewBookmark(userID uuid.UUID, query string) (*Bookmark, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUserID)
	}
	return &Bookmark{UserID: userID, Query: q, Timestamp: time.Now().UTC()}, nil
}

func normalizeQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuery)
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrQueryTooLong)
	}
	return q, nil
}
