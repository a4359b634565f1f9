package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartlearn/smartlearn-api/internal/api"
	apiMiddleware "github.com/smartlearn/smartlearn-api/internal/api/middleware"
	"github.com/smartlearn/smartlearn-api/internal/api/shared"
)

// routeHandlers groups the handlers and auth middleware the router mounts.
type routeHandlers struct {
	auth    *apiMiddleware.AuthMiddleware
	study   *api.StudyHandler
	session *api.AuthHandler
	account *api.AccountHandler
}

// setupRouter builds the handlers from the application's services and
// returns the configured router.
func (app *application) setupRouter() http.Handler {
	return newRouter(routeHandlers{
		auth: apiMiddleware.NewAuthMiddleware(app.jwtService, app.config.Auth.CookieName),
		study: api.NewStudyHandler(
			app.studyService,
			app.historyService,
			app.streakService,
			app.logger,
		),
		session: api.NewAuthHandler(
			app.userService,
			app.streakService,
			app.jwtService,
			app.config.Auth,
			app.logger,
		),
		account: api.NewAccountHandler(
			app.historyService,
			app.bookmarkService,
			app.streakService,
			app.logger,
		),
	}, app.logger)
}

// newRouter registers every route. Generation, session and history-save
// routes accept anonymous callers; account routes require a valid session.
func newRouter(h routeHandlers, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.auth.Optional)

			r.Get("/search/all", h.study.SearchAll)
			r.Get("/search", h.study.Search)
			r.Get("/story", h.study.Story)
			r.Post("/flashcards", h.study.Flashcards)
			r.Post("/mcqs", h.study.MCQs)
			r.Post("/keywords", h.study.Keywords)
			r.Get("/quota", h.study.Quota)
			r.Get("/cache/stats", h.study.CacheStats)

			r.Post("/auth/signup", h.session.SignUp)
			r.Post("/auth/signin", h.session.SignIn)
			r.Post("/auth/logout", h.session.Logout)
			r.Get("/auth/check", h.session.CheckAuth)

			r.Post("/history", h.account.SaveHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Authenticate)

			r.Get("/history", h.account.ListHistory)
			r.Delete("/history", h.account.ClearHistory)
			r.Delete("/history/{id}", h.account.DeleteHistory)

			r.Post("/bookmarks", h.account.AddBookmark)
			r.Get("/bookmarks", h.account.ListBookmarks)
			r.Delete("/bookmarks/{id}", h.account.DeleteBookmark)

			r.Get("/streak", h.account.GetStreak)
			r.Delete("/cache", h.study.ClearCache)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"status": "ok"})
	})

	log.Debug("routes registered")
	return r
}
