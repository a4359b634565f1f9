package mocks

import (
	"context"
	"sync"

	"github.com/smartlearn/smartlearn-api/internal/cache"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/generation"
)

// MockStudyService is a configurable stand-in for study.Service.
type MockStudyService struct {
	mu sync.Mutex

	GenerateAllFn func(ctx context.Context, topic, content string, includeStory bool) (*domain.StudyPack, error)

	Pack      *domain.StudyPack
	Text      string
	Cards     []domain.Flashcard
	Questions []domain.MCQ
	Terms     []domain.Keyword
	Quota     generation.QuotaSnapshot
	Stats     cache.Stats
	Cleared   int
	Err       error

	// Calls records the method names invoked, in order.
	Calls []string
	// LastTopic and LastContent hold the most recent arguments.
	LastTopic   string
	LastContent string
	LastTone    string
	LastStory   bool
}

func (m *MockStudyService) record(name, topic, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
	m.LastTopic, m.LastContent = topic, content
}

// GenerateAll returns Pack (or a fresh pack for topic) and Err.
func (m *MockStudyService) GenerateAll(ctx context.Context, topic, content string, includeStory bool) (*domain.StudyPack, error) {
	m.record("GenerateAll", topic, content)
	m.mu.Lock()
	m.LastStory = includeStory
	m.mu.Unlock()
	if m.GenerateAllFn != nil {
		return m.GenerateAllFn(ctx, topic, content, includeStory)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Pack != nil {
		return m.Pack, nil
	}
	return domain.NewStudyPack(topic), nil
}

// Explain returns Text and Err.
func (m *MockStudyService) Explain(_ context.Context, topic string) (string, error) {
	m.record("Explain", topic, "")
	return m.Text, m.Err
}

// Story returns Text and Err.
func (m *MockStudyService) Story(_ context.Context, concept, tone string) (string, error) {
	m.record("Story", concept, "")
	m.mu.Lock()
	m.LastTone = tone
	m.mu.Unlock()
	return m.Text, m.Err
}

// Flashcards returns Cards and Err.
func (m *MockStudyService) Flashcards(_ context.Context, topic, content string) ([]domain.Flashcard, error) {
	m.record("Flashcards", topic, content)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Cards, nil
}

// MCQs returns Questions and Err.
func (m *MockStudyService) MCQs(_ context.Context, topic, content string) ([]domain.MCQ, error) {
	m.record("MCQs", topic, content)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Questions, nil
}

// Keywords returns Terms and Err.
func (m *MockStudyService) Keywords(_ context.Context, topic, content string) ([]domain.Keyword, error) {
	m.record("Keywords", topic, content)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Terms, nil
}

// QuotaSnapshot returns Quota.
func (m *MockStudyService) QuotaSnapshot() generation.QuotaSnapshot {
	return m.Quota
}

// CacheStats returns Stats and Err.
func (m *MockStudyService) CacheStats(context.Context) (cache.Stats, error) {
	return m.Stats, m.Err
}

// ClearCache returns Cleared and Err.
func (m *MockStudyService) ClearCache(context.Context) (int, error) {
	m.record("ClearCache", "", "")
	return m.Cleared, m.Err
}
