package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewSearchHistory(t *testing.T) {
	userID := uuid.New()

	h, err := NewSearchHistory(userID, "  photosynthesis ", 5, 4)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h.Query != "photosynthesis" || h.FlashcardCount != 5 || h.MCQCount != 4 {
		t.Errorf("unexpected entry %+v", h)
	}
	if h.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	tests := []struct {
		name   string
		userID uuid.UUID
		query  string
		fc     int
		want   error
	}{
		{"empty query", userID, "   ", 0, ErrEmptyQuery},
		{"query too long", userID, strings.Repeat("q", MaxQueryLength+1), 0, ErrQueryTooLong},
		{"nil user", uuid.Nil, "topic", 0, ErrEmptyUserID},
		{"negative count", userID, "topic", -1, ErrNegativeCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchHistory(tt.userID, tt.query, tt.fc, 0)
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrValidation) {
				t.Errorf("Expected %v wrapped in ErrValidation, got %v", tt.want, err)
			}
		})
	}
}

func TestNewBookmark(t *testing.T) {
	b, err := NewBookmark(uuid.New(), strings.Repeat("é", MaxQueryLength))
	if err != nil {
		t.Fatalf("multi-byte query at the limit should be accepted: %v", err)
	}
	if b.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	if _, err := NewBookmark(uuid.New(), ""); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected %v, got %v", ErrEmptyQuery, err)
	}
}

func TestStudyPackNormalize(t *testing.T) {
	p := &StudyPack{Topic: "cells"}
	p.Normalize()
	if p.Flashcards == nil || p.MCQs == nil || p.Keywords == nil || p.Errors == nil {
		t.Fatal("Normalize must replace nil slices")
	}
	if !p.Complete() {
		t.Error("pack without errors should be complete")
	}
	p.AddError("Batch 1 failed: quota")
	if p.Complete() {
		t.Error("pack with errors should not be complete")
	}
}
