package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/smartlearn/smartlearn-api/internal/cache"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/generation"
	"github.com/smartlearn/smartlearn-api/internal/generation/prompts"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/redact"
	"github.com/smartlearn/smartlearn-api/internal/sanitize"
)

// Token budgets per call.
const (
	ExplanationTokens = 2000
	StoryTokens       = 2000
	FlashcardTokens   = 2000
	MCQTokens         = 2500
	KeywordTokens     = 1500
	BatchTextTokens   = 3000
	BatchJSONTokens   = 3500
)

// Section delimiters of the batch_text reply.
const (
	ExplanationDelimiter = "---EXPLANATION---"
	StoryDelimiter       = "---STORY---"
	EndDelimiter         = "---END---"
)

// SearchOnlySuffix keys cached explanations.
const SearchOnlySuffix = "search_only"

// DefaultBatchPause separates the two batch calls.
const DefaultBatchPause = 2 * time.Second

var (
	// ErrTooFewItems is returned when a reply holds fewer usable items than
	// the content type requires.
	ErrTooFewItems = errors.New("too few valid items in model reply")

	// ErrMalformedResponse is returned when no JSON could be recovered from
	// a reply.
	ErrMalformedResponse = errors.New("model reply is not valid JSON")
)

// Generator produces text for a prompt. *generation.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (string, error)
}

// QuotaReporter reports model usage. *generation.QuotaTracker implements it.
type QuotaReporter interface {
	Snapshot() generation.QuotaSnapshot
}

// Config tunes a Service. Zero values select defaults.
type Config struct {
	TTL        time.Duration
	BatchPause time.Duration
}

// Service generates study content and caches complete results.
type Service struct {
	gen     Generator
	quota   QuotaReporter
	store   cache.Store
	prompts *prompts.Library
	logger  *slog.Logger

	ttl        time.Duration
	batchPause time.Duration
	group      singleflight.Group

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService wires a Service. quota may be nil; lib nil uses the embedded
// prompt templates.
func NewService(
	gen Generator,
	quota QuotaReporter,
	store cache.Store,
	lib *prompts.Library,
	cfg Config,
	log *slog.Logger,
) (*Service, error) {
	if gen == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if store == nil {
		return nil, errors.New("cache store cannot be nil")
	}
	if lib == nil {
		var err error
		if lib, err = prompts.New(""); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = DefaultBatchPause
	}

	return &Service{
		gen:        gen,
		quota:      quota,
		store:      store,
		prompts:    lib,
		logger:     log.With(slog.String("component", "study_service")),
		ttl:        cfg.TTL,
		batchPause: cfg.BatchPause,
		sleep:      sleepContext,
	}, nil
}

// GenerateAll builds the full study pack for topic in two model calls.
//
// Generation failures do not fail the call; they are listed in the pack's
// Errors and such packs are not cached. Concurrent requests for the same
// uncached key share one build, which keeps running when the caller that
// started it goes away. The story is omitted from the result when
// includeStory is false.
func (s *Service) GenerateAll(ctx context.Context, topic, content string, includeStory bool) (*domain.StudyPack, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrEmptyTopic
	}
	content = strings.TrimSpace(content)
	key := cache.Key(topic, cache.ContentHash(content))
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("cache_key", key))

	var pack domain.StudyPack
	if s.load(ctx, key, &pack) {
		log.InfoContext(ctx, "serving study pack from cache")
		pack.Normalize()
		return withStory(&pack, includeStory), nil
	}

	// The build outlives any single caller; each caller waits on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.build(context.WithoutCancel(ctx), topic, content)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		log.DebugContext(ctx, "joined in-flight study pack build")
	}
	return withStory(res.Val.(*domain.StudyPack), includeStory), nil
}

// withStory returns a copy of p, dropping the story when not wanted.
// Builds may be shared between callers, so p is never modified.
func withStory(p *domain.StudyPack, include bool) *domain.StudyPack {
	out := *p
	if !include {
		out.Story = ""
	}
	return &out
}

func (s *Service) build(ctx context.Context, topic, content string) (*domain.StudyPack, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("topic", topic))
	pack := domain.NewStudyPack(topic)

	text, err := s.generate(ctx, prompts.BatchText, prompts.Data{Topic: topic}, BatchTextTokens)
	if err != nil {
		log.WarnContext(ctx, "explanation batch failed", slog.String("error", redact.Error(err)))
		pack.AddError("Batch 1 failed: " + failureMessage(err))
	} else if explanation, story, ok := SplitBatchText(text); ok {
		pack.Search = explanation
		pack.Story = story
	} else {
		log.WarnContext(ctx, "explanation batch reply missing delimiters", slog.Int("length", len(text)))
		pack.AddError("Batch 1 parse: reply is missing section delimiters")
	}

	if err := s.sleep(ctx, s.batchPause); err != nil {
		return nil, err
	}

	reference := content
	if reference == "" {
		reference = pack.Search
	}
	text, err = s.generate(ctx, prompts.BatchJSON, prompts.Data{Topic: topic, Content: reference}, BatchJSONTokens)
	if err != nil {
		log.WarnContext(ctx, "materials batch failed", slog.String("error", redact.Error(err)))
		pack.AddError("Batch 2 failed: " + failureMessage(err))
	} else {
		var payload struct {
			Flashcards []any `json:"flashcards"`
			MCQs       []any `json:"mcqs"`
			Keywords   []any `json:"keywords"`
		}
		outcome := sanitize.Decode(text, sanitize.Object, &payload)
		if outcome.OK() {
			pack.Flashcards = batchItems(pack, "Flashcards", payload.Flashcards, MinItems, toFlashcard)
			pack.MCQs = batchItems(pack, "MCQs", payload.MCQs, MinItems, toMCQ)
			pack.Keywords = batchItems(pack, "Keywords", payload.Keywords, 1, toKeyword)
			log.DebugContext(ctx, "decoded materials batch", slog.String("stage", outcome.Stage.String()))
		} else {
			log.WarnContext(ctx, "materials batch is not valid JSON", slog.String("error", outcome.Err.Error()))
			pack.AddError("JSON parse: " + outcome.Err.Error())
		}
	}

	log.InfoContext(ctx, "study pack built",
		slog.Int("search_length", len(pack.Search)),
		slog.Int("story_length", len(pack.Story)),
		slog.Int("flashcards", len(pack.Flashcards)),
		slog.Int("mcqs", len(pack.MCQs)),
		slog.Int("keywords", len(pack.Keywords)),
		slog.Int("errors", len(pack.Errors)))

	if pack.Complete() {
		s.save(ctx, cache.Key(topic, cache.ContentHash(content)), pack)
	}
	return pack, nil
}

// batchItems keeps up to BatchItemLimit valid items from raw. When fewer
// than need survive, the list stays empty and the shortfall is recorded on
// pack.
func batchItems[T any](pack *domain.StudyPack, label string, raw []any, need int, conv func(any) (T, bool)) []T {
	items, err := atLeast(collect(raw, BatchItemLimit, conv), len(raw), need)
	if err != nil {
		pack.AddError(label + ": too few valid items")
		return []T{}
	}
	return items
}

// SplitBatchText extracts the explanation and story sections. ok is false
// when either opening delimiter is missing. A missing end delimiter keeps
// the rest of the reply as the story.
func SplitBatchText(text string) (explanation, story string, ok bool) {
	_, afterExp, found := strings.Cut(text, ExplanationDelimiter)
	if !found {
		return "", "", false
	}
	explanation, afterStory, found := strings.Cut(afterExp, StoryDelimiter)
	if !found {
		return "", "", false
	}
	story, _, _ = strings.Cut(afterStory, EndDelimiter)
	return strings.TrimSpace(explanation), strings.TrimSpace(story), true
}

// Explain returns a detailed explanation of topic, cached per topic.
func (s *Service) Explain(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", domain.ErrEmptyTopic
	}
	key := cache.Key(topic, SearchOnlySuffix)

	var cached struct {
		Topic  string `json:"topic"`
		Search string `json:"search"`
	}
	if s.load(ctx, key, &cached) && cached.Search != "" {
		return cached.Search, nil
	}

	text, err := s.generate(ctx, prompts.Explanation, prompts.Data{Topic: topic}, ExplanationTokens)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	cached.Topic, cached.Search = topic, text
	s.save(ctx, key, cached)
	return text, nil
}

// Story returns a story teaching concept in the given tone.
func (s *Service) Story(ctx context.Context, concept, tone string) (string, error) {
	if strings.TrimSpace(concept) == "" {
		return "", domain.ErrEmptyTopic
	}
	text, err := s.generate(ctx, prompts.Story, prompts.Data{Topic: concept, Tone: tone}, StoryTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Flashcards generates flashcards for topic, using content as reference.
func (s *Service) Flashcards(ctx context.Context, topic, content string) ([]domain.Flashcard, error) {
	raw, err := s.generateArray(ctx, prompts.Flashcards, topic, content, FlashcardTokens)
	if err != nil {
		return nil, err
	}
	return atLeast(ValidFlashcards(raw), len(raw), MinItems)
}

// MCQs generates multiple-choice questions for topic.
func (s *Service) MCQs(ctx context.Context, topic, content string) ([]domain.MCQ, error) {
	raw, err := s.generateArray(ctx, prompts.MCQs, topic, content, MCQTokens)
	if err != nil {
		return nil, err
	}
	return atLeast(ValidMCQs(raw), len(raw), MinItems)
}

// Keywords extracts key terms for topic.
func (s *Service) Keywords(ctx context.Context, topic, content string) ([]domain.Keyword, error) {
	raw, err := s.generateArray(ctx, prompts.Keywords, topic, content, KeywordTokens)
	if err != nil {
		return nil, err
	}
	return atLeast(ValidKeywords(raw), len(raw), 1)
}

// atLeast requires both the raw reply and the validated items to reach min.
func atLeast[T any](items []T, rawCount, need int) ([]T, error) {
	if rawCount < need || len(items) < need {
		return nil, fmt.Errorf("%w: %d of %d usable, need %d", ErrTooFewItems, len(items), rawCount, need)
	}
	return items, nil
}

// QuotaSnapshot reports today's model usage.
func (s *Service) QuotaSnapshot() generation.QuotaSnapshot {
	if s.quota == nil {
		return generation.QuotaSnapshot{}
	}
	return s.quota.Snapshot()
}

// CacheStats reports the cache backend's size.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	return s.store.Stats(ctx)
}

// ClearCache removes every cached entry and returns how many were removed.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	n, err := s.store.Clear(ctx)
	if err != nil {
		return 0, err
	}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "cache cleared", slog.Int("removed", n))
	return n, nil
}

func (s *Service) generate(ctx context.Context, name string, data prompts.Data, maxTokens int) (string, error) {
	prompt, err := s.prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	return s.gen.Generate(ctx, generation.Request{Prompt: prompt, MaxTokens: maxTokens})
}

func (s *Service) generateArray(ctx context.Context, name, topic, content string, maxTokens int) ([]any, error) {
	text, err := s.generate(ctx, name, prompts.Data{Topic: topic, Content: content}, maxTokens)
	if err != nil {
		return nil, err
	}
	var raw []any
	outcome := sanitize.Decode(text, sanitize.Array, &raw)
	if !outcome.OK() {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "model reply is not a JSON array",
			slog.String("template", name),
			slog.String("error", outcome.Err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, outcome.Err)
	}
	return raw, nil
}

// load decodes a cached value into v. Misses and cache faults both
// report false; faults are logged.
func (s *Service) load(ctx context.Context, key string, v any) bool {
	data, found, err := s.store.Get(ctx, key)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", redact.Error(err)))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "cached value is unreadable",
			slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (s *Service) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = s.store.Set(ctx, key, data, s.ttl)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", redact.Error(err)))
	}
}

// failureMessage is the short, client-safe description of a failed call.
func failureMessage(err error) string {
	var genErr *generation.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case generation.KindQuota:
			return "API quota exhausted, try again later"
		case generation.KindInvalidCredential:
			return "API key rejected"
		case generation.KindBlocked:
			return "content blocked by safety filters"
		case generation.KindEmptyResponse:
			return "empty response from model"
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "request cancelled"
	}
	return "content generation failed"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
