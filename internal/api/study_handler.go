package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/service"
)

// StudyHandler serves the content generation endpoints.
type StudyHandler struct {
	study   StudyService
	history service.HistoryService
	streaks service.StreakService
	logger  *slog.Logger
}

// NewStudyHandler creates a StudyHandler. history and streaks may be nil,
// in which case searches are not recorded.
func NewStudyHandler(
	study StudyService,
	history service.HistoryService,
	streaks service.StreakService,
	log *slog.Logger,
) *StudyHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StudyHandler{
		study:   study,
		history: history,
		streaks: streaks,
		logger:  log.With(slog.String("component", "study_handler")),
	}
}

// SearchAll handles GET /api/search/all.
func (h *StudyHandler) SearchAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := strings.TrimSpace(q.Get("topic"))
	if topic == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Please enter a topic")
		return
	}
	content := strings.TrimSpace(q.Get("content"))
	includeStory := true
	if v := q.Get("include_story"); v != "" {
		includeStory = strings.EqualFold(v, "true")
	}

	pack, err := h.study.GenerateAll(r.Context(), topic, content, includeStory)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate study content")
		return
	}

	if userID, ok := getUserIDFromContext(r); ok {
		h.recordSearch(r.Context(), userID, topic, pack)
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"data": pack})
}

// recordSearch saves the history row and advances the streak after a
// successful search. Failures are logged and never reach the client.
func (h *StudyHandler) recordSearch(ctx context.Context, userID uuid.UUID, topic string, pack *domain.StudyPack) {
	log := logger.FromContextOrDefault(ctx, h.logger)
	if h.history != nil {
		if _, err := h.history.Save(ctx, userID, topic, len(pack.Flashcards), len(pack.MCQs)); err != nil {
			log.WarnContext(ctx, "failed to save search history",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
	}
	if h.streaks != nil {
		if _, err := h.streaks.RecordActivity(ctx, userID); err != nil {
			log.WarnContext(ctx, "failed to update study streak",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
	}
}

// Search handles GET /api/search, returning only the explanation.
func (h *StudyHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := strings.TrimSpace(q.Get("prompt"))
	if topic == "" {
		topic = strings.TrimSpace(q.Get("topic"))
	}
	if topic == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Please enter something")
		return
	}

	text, err := h.study.Explain(r.Context(), topic)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate explanation")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"response": text})
}

// Story handles GET /api/story.
func (h *StudyHandler) Story(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	concept := strings.TrimSpace(q.Get("concept"))
	if concept == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Please enter a concept")
		return
	}

	text, err := h.study.Story(r.Context(), concept, strings.TrimSpace(q.Get("tone")))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate story")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"story": text})
}

// topicAndContent reads ?topic and the {"content"} body shared by the
// single-type generators.
func topicAndContent(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	var req ContentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid JSON in request", err)
		return "", "", false
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing topic")
		return "", "", false
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing content")
		return "", "", false
	}
	return topic, content, true
}

// Flashcards handles POST /api/flashcards.
func (h *StudyHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	topic, content, ok := topicAndContent(w, r)
	if !ok {
		return
	}
	cards, err := h.study.Flashcards(r.Context(), topic, content)
	if err != nil {
		HandleAPIError(w, r, err, "Flashcard generation failed")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"flashcards": cards})
}

// MCQs handles POST /api/mcqs.
func (h *StudyHandler) MCQs(w http.ResponseWriter, r *http.Request) {
	topic, content, ok := topicAndContent(w, r)
	if !ok {
		return
	}
	mcqs, err := h.study.MCQs(r.Context(), topic, content)
	if err != nil {
		HandleAPIError(w, r, err, "MCQ generation failed")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"mcqs": mcqs})
}

// Keywords handles POST /api/keywords.
func (h *StudyHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	topic, content, ok := topicAndContent(w, r)
	if !ok {
		return
	}
	keywords, err := h.study.Keywords(r.Context(), topic, content)
	if err != nil {
		HandleAPIError(w, r, err, "Keyword extraction failed")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"keywords": keywords})
}

// Quota handles GET /api/quota.
func (h *StudyHandler) Quota(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"quota": h.study.QuotaSnapshot()})
}

// CacheStats handles GET /api/cache/stats.
func (h *StudyHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.study.CacheStats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read cache statistics")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"cache": stats})
}

// ClearCache handles DELETE /api/cache.
func (h *StudyHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.study.ClearCache(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear cache")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"removed": n})
}
