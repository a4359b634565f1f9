package api

import (
	"log/slog"
	"net/http"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/service"
)

// AccountHandler serves the per-user history, bookmark and streak
// endpoints.
type AccountHandler struct {
	history   service.HistoryService
	bookmarks service.BookmarkService
	streaks   service.StreakService
	logger    *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(
	history service.HistoryService,
	bookmarks service.BookmarkService,
	streaks service.StreakService,
	log *slog.Logger,
) *AccountHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AccountHandler{
		history:   history,
		bookmarks: bookmarks,
		streaks:   streaks,
		logger:    log.With(slog.String("component", "account_handler")),
	}
}

// SaveHistory handles POST /api/history. Anonymous callers get a success
// response and nothing is stored.
func (h *AccountHandler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{
			"message": "History not saved: not signed in",
			"saved":   false,
		})
		return
	}

	entry, err := h.history.Save(r.Context(), userID, req.Query, req.FlashcardCount, req.MCQCount)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save history")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusCreated, map[string]any{
		"message": "History saved",
		"saved":   true,
		"entry":   entry,
	})
}

// ListHistory handles GET /api/history.
func (h *AccountHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.history.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load history")
		return
	}
	if entries == nil {
		entries = []domain.SearchHistory{}
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"history": entries})
}

// DeleteHistory handles DELETE /api/history/{id}.
func (h *AccountHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.history.Delete(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete history entry")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"message": "History deleted"})
}

// ClearHistory handles DELETE /api/history.
func (h *AccountHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.history.Clear(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to clear history")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{
		"message": "All history cleared",
		"removed": n,
	})
}

// AddBookmark handles POST /api/bookmarks. Re-bookmarking a query returns
// the existing bookmark with 200 instead of 201.
func (h *AccountHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req BookmarkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, created, err := h.bookmarks.Add(r.Context(), userID, req.Query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save bookmark")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.RespondWithSuccess(w, r, status, map[string]any{
		"bookmark": b,
		"created":  created,
	})
}

// ListBookmarks handles GET /api/bookmarks.
func (h *AccountHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.bookmarks.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load bookmarks")
		return
	}
	if list == nil {
		list = []domain.Bookmark{}
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"bookmarks": list})
}

// DeleteBookmark handles DELETE /api/bookmarks/{id}.
func (h *AccountHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.bookmarks.Delete(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete bookmark")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"message": "Bookmark deleted"})
}

// GetStreak handles GET /api/streak.
func (h *AccountHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.streaks.GetStreak(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load streak")
		return
	}
	days := make([]string, 0, len(summary.RecentDays))
	for _, d := range summary.RecentDays {
		days = append(days, d.Format(dateLayout))
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{
		"streak":      streakToResponse(&summary.Streak),
		"recent_days": days,
	})
}
