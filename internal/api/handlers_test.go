package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlearn/smartlearn-api/internal/api/middleware"
	"github.com/smartlearn/smartlearn-api/internal/cache"
	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/generation"
	"github.com/smartlearn/smartlearn-api/internal/mocks"
	"github.com/smartlearn/smartlearn-api/internal/service"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

const testCookie = "test_session"

type testEnv struct {
	router http.Handler
	study  *mocks.MockStudyService
	mem    *mocks.MemoryStores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := mocks.NewMemoryStores()
	studySvc := &mocks.MockStudyService{}
	jwtSvc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-that-is-at-least-32-characters",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	streaks := service.NewStreakService(mem, nil, nil)
	users := service.NewUserService(mem.Stores().Users, &mocks.MockPasswordHasher{}, streaks, nil)
	history := service.NewHistoryService(mem.Stores().History, nil)
	bookmarks := service.NewBookmarkService(mem.Stores().Bookmarks, nil)

	authMW := middleware.NewAuthMiddleware(jwtSvc, testCookie)
	authH := NewAuthHandler(users, streaks, jwtSvc, config.AuthConfig{CookieName: testCookie}, nil)
	studyH := NewStudyHandler(studySvc, history, streaks, nil)
	accountH := NewAccountHandler(history, bookmarks, streaks, nil)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMW.Optional)
			r.Get("/search/all", studyH.SearchAll)
			r.Get("/search", studyH.Search)
			r.Get("/story", studyH.Story)
			r.Post("/flashcards", studyH.Flashcards)
			r.Post("/mcqs", studyH.MCQs)
			r.Post("/keywords", studyH.Keywords)
			r.Get("/quota", studyH.Quota)
			r.Get("/cache/stats", studyH.CacheStats)
			r.Post("/auth/signup", authH.SignUp)
			r.Post("/auth/signin", authH.SignIn)
			r.Post("/auth/logout", authH.Logout)
			r.Get("/auth/check", authH.CheckAuth)
			r.Post("/history", accountH.SaveHistory)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Get("/history", accountH.ListHistory)
			r.Delete("/history/{id}", accountH.DeleteHistory)
			r.Delete("/history", accountH.ClearHistory)
			r.Post("/bookmarks", accountH.AddBookmark)
			r.Get("/bookmarks", accountH.ListBookmarks)
			r.Delete("/bookmarks/{id}", accountH.DeleteBookmark)
			r.Get("/streak", accountH.GetStreak)
			r.Delete("/cache", studyH.ClearCache)
		})
	})

	return &testEnv{router: r, study: studySvc, mem: mem}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

// signUp creates an account and returns its session token.
func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/auth/signup",
		fmt.Sprintf(`{"name":"Ada","email":%q,"password":"password123"}`, email), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/auth/signup",
		`{"name":"Ada","email":"Ada@Example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "hashed_password")
	streak := body["streak"].(map[string]any)
	assert.Equal(t, float64(1), streak["current_streak"])

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body["token"], cookie.Value)

	t.Run("duplicate email", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/signup",
			`{"name":"Ada","email":"ada@example.com","password":"password123"}`, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("sign in", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/signin",
			`{"email":"ada@example.com","password":"password123"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ada", body["user"].(map[string]any)["name"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("unknown email", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/signin",
			`{"email":"nobody@example.com","password":"password123"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, MsgUnknownEmail, body["error"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/signin",
			`{"email":"ada@example.com","password":"nope-nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, MsgWrongPassword, body["error"])
	})

	t.Run("check with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
		u := body["user"].(map[string]any)
		assert.Equal(t, "ada@example.com", u["email"])
		assert.NotNil(t, u["streak"])
	})

	t.Run("check anonymous", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/auth/check", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["authenticated"])
	})

	t.Run("logout expires cookie", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/logout", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testCookie, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"short name", `{"name":"A","email":"a@example.com","password":"password123"}`, "Invalid Name: too short"},
		{"bad email", `{"name":"Ada","email":"nope","password":"password123"}`, "Invalid Email: invalid email format"},
		{"short password", `{"name":"Ada","email":"a@example.com","password":"short"}`, "Invalid Password: too short"},
		{"malformed json", `{"name":`, "Invalid request format"},
		{"empty body", "", "Request body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/api/auth/signup", tt.payload, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestSearchAll(t *testing.T) {
	env := newTestEnv(t)
	env.study.Pack = &domain.StudyPack{
		Topic:      "photosynthesis",
		Search:     "Plants turn light into sugar.",
		Story:      "Once upon a leaf...",
		Flashcards: []domain.Flashcard{{Q: "q1", A: "a1", Type: "definition"}, {Q: "q2", A: "a2", Type: "definition"}},
		MCQs:       []domain.MCQ{{Q: "q", Opts: []string{"a", "b", "c", "d"}, Ans: 1, Explanation: "b"}},
		Keywords:   []domain.Keyword{},
		Errors:     []string{},
	}

	t.Run("anonymous search is not recorded", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/search/all?topic=photosynthesis", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Plants turn light into sugar.", data["search"])
		assert.True(t, env.study.LastStory, "include_story defaults to true")
		assert.Equal(t, 0, env.mem.HistoryLen())
	})

	t.Run("include_story=false", func(t *testing.T) {
		w, _ := env.do(t, http.MethodGet, "/api/search/all?topic=photosynthesis&include_story=false&content=leaf", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, env.study.LastStory)
		assert.Equal(t, "leaf", env.study.LastContent)
	})

	t.Run("authenticated search records history and streak", func(t *testing.T) {
		token := env.signUp(t, "searcher@example.com")
		w, _ := env.do(t, http.MethodGet, "/api/search/all?topic=photosynthesis", "", token)
		require.Equal(t, http.StatusOK, w.Code)

		w, body := env.do(t, http.MethodGet, "/api/history", "", token)
		require.Equal(t, http.StatusOK, w.Code)
		history := body["history"].([]any)
		require.Len(t, history, 1)
		entry := history[0].(map[string]any)
		assert.Equal(t, "photosynthesis", entry["query"])
		assert.Equal(t, float64(2), entry["flashcard_count"])
		assert.Equal(t, float64(1), entry["mcq_count"])
	})

	t.Run("history failure does not fail the search", func(t *testing.T) {
		token := env.signUp(t, "unlucky@example.com")
		env.mem.HistoryErr = errors.New("disk full")
		defer func() { env.mem.HistoryErr = nil }()

		w, body := env.do(t, http.MethodGet, "/api/search/all?topic=photosynthesis", "", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
	})

	t.Run("missing topic", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/search/all?topic=%20", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Please enter a topic", body["error"])
	})

	t.Run("generation failure", func(t *testing.T) {
		env.study.Err = &generation.GenerationError{Kind: generation.KindQuota, Err: generation.ErrQuotaExhausted}
		defer func() { env.study.Err = nil }()

		w, body := env.do(t, http.MethodGet, "/api/search/all?topic=photosynthesis", "", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "AI service quota exhausted, please try again later", body["error"])
	})
}

func TestSearchAndStory(t *testing.T) {
	env := newTestEnv(t)
	env.study.Text = "An explanation."

	w, body := env.do(t, http.MethodGet, "/api/search?prompt=gravity", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "An explanation.", body["response"])
	assert.Equal(t, "gravity", env.study.LastTopic)

	w, _ = env.do(t, http.MethodGet, "/api/search?topic=inertia", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inertia", env.study.LastTopic, "topic is accepted as an alias")

	w, _ = env.do(t, http.MethodGet, "/api/search", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/story?concept=gravity&tone=funny", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "An explanation.", body["story"])
	assert.Equal(t, "funny", env.study.LastTone)

	w, body = env.do(t, http.MethodGet, "/api/story", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a concept", body["error"])
}

func TestSingleGenerators(t *testing.T) {
	env := newTestEnv(t)
	env.study.Cards = []domain.Flashcard{{Q: "q", A: "a", Type: "definition"}}
	env.study.Questions = []domain.MCQ{{Q: "q", Opts: []string{"a", "b", "c", "d"}, Ans: 0}}
	env.study.Terms = []domain.Keyword{{K: "chlorophyll", D: "green pigment"}}

	for _, tc := range []struct{ path, field string }{
		{"/api/flashcards", "flashcards"},
		{"/api/mcqs", "mcqs"},
		{"/api/keywords", "keywords"},
	} {
		t.Run(tc.field, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, tc.path+"?topic=plants", `{"content":"Plants make food."}`, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Len(t, body[tc.field], 1)
			assert.Equal(t, "Plants make food.", env.study.LastContent)

			w, body = env.do(t, http.MethodPost, tc.path, `{"content":"x"}`, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing topic", body["error"])

			w, body = env.do(t, http.MethodPost, tc.path+"?topic=plants", `{"content":"  "}`, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing content", body["error"])

			w, body = env.do(t, http.MethodPost, tc.path+"?topic=plants", `not json`, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid JSON in request", body["error"])
		})
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")
	other := env.signUp(t, "bob@example.com")

	w, body := env.do(t, http.MethodPost, "/api/history", `{"query":"cells","flashcard_count":5,"mcq_count":4}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["saved"], "anonymous save succeeds without storing")
	assert.Equal(t, 0, env.mem.HistoryLen())

	w, body = env.do(t, http.MethodPost, "/api/history", `{"query":"cells","flashcard_count":5,"mcq_count":4}`, token)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(body["entry"].(map[string]any)["id"].(float64))

	w, _ = env.do(t, http.MethodPost, "/api/history", `{"query":"","flashcard_count":0,"mcq_count":0}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/history", `{"query":"x","flashcard_count":-1,"mcq_count":0}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	path := fmt.Sprintf("/api/history/%d", id)
	w, body = env.do(t, http.MethodDelete, path, "", other)
	assert.Equal(t, http.StatusNotFound, w.Code, "entries of other users are invisible")
	assert.Equal(t, "History entry not found", body["error"])

	w, _ = env.do(t, http.MethodDelete, "/api/history/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, q := range []string{"a", "b"} {
		w, _ = env.do(t, http.MethodPost, "/api/history", fmt.Sprintf(`{"query":%q}`, q), token)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, body = env.do(t, http.MethodDelete, "/api/history", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["removed"])

	w, body = env.do(t, http.MethodGet, "/api/history", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["history"])
}

func TestBookmarkEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	w, body := env.do(t, http.MethodPost, "/api/bookmarks", `{"query":"gravity"}`, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["created"])
	id := int64(body["bookmark"].(map[string]any)["id"].(float64))

	w, body = env.do(t, http.MethodPost, "/api/bookmarks", `{"query":"gravity"}`, token)
	require.Equal(t, http.StatusOK, w.Code, "re-bookmarking is idempotent")
	assert.Equal(t, false, body["created"])
	assert.Equal(t, float64(id), body["bookmark"].(map[string]any)["id"])

	w, body = env.do(t, http.MethodGet, "/api/bookmarks", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["bookmarks"], 1)

	w, _ = env.do(t, http.MethodPost, "/api/bookmarks", `{"query":"`+strings.Repeat("x", 256)+`"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/bookmarks", `{"query":"gravity"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/bookmarks/%d", id), "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/bookmarks/%d", id), "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreakEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	w, body := env.do(t, http.MethodGet, "/api/streak", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	streak := body["streak"].(map[string]any)
	assert.Equal(t, float64(1), streak["current_streak"])
	assert.Equal(t, float64(1), streak["longest_streak"])
	assert.Len(t, body["recent_days"], 1)

	w, _ = env.do(t, http.MethodGet, "/api/streak", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuotaAndCache(t *testing.T) {
	env := newTestEnv(t)
	env.study.Quota = generation.QuotaSnapshot{Day: "2024-03-01", CallsMade: 3, QuotaLimit: 100, Remaining: 97, UsagePercent: 3}
	env.study.Stats = cache.Stats{Backend: "memory", Count: 2}
	env.study.Cleared = 2

	w, body := env.do(t, http.MethodGet, "/api/quota", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(97), body["quota"].(map[string]any)["remaining"])

	w, body = env.do(t, http.MethodGet, "/api/cache/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", body["cache"].(map[string]any)["backend"])

	w, _ = env.do(t, http.MethodDelete, "/api/cache", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := env.signUp(t, "admin@example.com")
	w, body = env.do(t, http.MethodDelete, "/api/cache", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["removed"])

	env.study.Err = errors.New("redis: connection refused")
	w, body = env.do(t, http.MethodGet, "/api/cache/stats", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to read cache statistics", body["error"])
}

func TestSearchAllReportsPartialFailures(t *testing.T) {
	env := newTestEnv(t)
	env.study.GenerateAllFn = func(_ context.Context, topic, _ string, _ bool) (*domain.StudyPack, error) {
		if topic == "" {
			return nil, domain.ErrEmptyTopic
		}
		p := domain.NewStudyPack(topic)
		p.AddError("flashcards: content generation failed")
		return p, nil
	}

	w, body := env.do(t, http.MethodGet, "/api/search/all?topic=mitosis", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{"flashcards: content generation failed"}, data["errors"])
	assert.Equal(t, []any{}, data["flashcards"])
}
