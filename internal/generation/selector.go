package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

// DefaultModelPriority lists preferred model name fragments, best first.
var DefaultModelPriority = []string{"gemini-2.5-flash", "gemini-1.5-flash", "gemini-pro"}

// ModelSelector picks the model used for generation and caches the choice.
type ModelSelector struct {
	backend  Backend
	keys     *Keyring
	explicit string
	priority []string
	logger   *slog.Logger

	mu       sync.Mutex
	selected string
}

// NewModelSelector returns a selector. A non-empty explicit model skips
// discovery entirely.
func NewModelSelector(backend Backend, keys *Keyring, explicit string, priority []string, log *slog.Logger) *ModelSelector {
	if len(priority) == 0 {
		priority = DefaultModelPriority
	}
	if log == nil {
		log = slog.Default()
	}
	return &ModelSelector{
		backend:  backend,
		keys:     keys,
		explicit: strings.TrimPrefix(strings.TrimSpace(explicit), "models/"),
		priority: priority,
		logger:   log.With(slog.String("component", "model_selector")),
	}
}

// Select returns the cached model, discovering one on first use. Failed
// discovery is not cached.
func (s *ModelSelector) Select(ctx context.Context) (string, error) {
	if s.explicit != "" {
		return s.explicit, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != "" {
		return s.selected, nil
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	models, err := s.listModels(ctx, log)
	if err != nil {
		return "", fmt.Errorf("%w: list models: %w", ErrNoModelAvailable, err)
	}

	available := make([]string, 0, len(models))
	for _, m := range models {
		if m.Supports(GenerateContentAction) {
			available = append(available, strings.TrimPrefix(m.Name, "models/"))
		}
	}

	chosen, err := choose(available, s.priority)
	if err != nil {
		return "", err
	}

	log.InfoContext(ctx, "selected generative model",
		slog.String("model", chosen),
		slog.Int("available", len(available)))
	s.selected = chosen
	return chosen, nil
}

// listModels asks the backend for models, moving to the next untried key
// on quota or credential errors.
func (s *ModelSelector) listModels(ctx context.Context, log *slog.Logger) ([]ModelInfo, error) {
	rotation := s.keys.NewRotation()
	idx, key := s.keys.Current()
	for {
		models, err := s.backend.ListModels(ctx, key)
		if err == nil {
			return models, nil
		}
		kind := Classify(err)
		if kind != KindQuota && kind != KindInvalidCredential {
			return nil, err
		}
		next, nextKey, ok := rotation.Advance(idx)
		if !ok {
			return nil, err
		}
		log.InfoContext(ctx, "switching API key for model discovery",
			slog.String("kind", string(kind)),
			slog.String("from", s.keys.Masked(idx)),
			slog.String("to", s.keys.Masked(next)))
		idx, key = next, nextKey
	}
}

// Selected returns the cached choice without triggering discovery.
func (s *ModelSelector) Selected() string {
	if s.explicit != "" {
		return s.explicit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// choose returns the first available model containing a priority fragment,
// trying fragments in order, or the first available model.
func choose(available, priority []string) (string, error) {
	if len(available) == 0 {
		return "", ErrNoModelAvailable
	}
	for _, want := range priority {
		want = strings.ToLower(want)
		for _, name := range available {
			if strings.Contains(strings.ToLower(name), want) {
				return name, nil
			}
		}
	}
	return available[0], nil
}
