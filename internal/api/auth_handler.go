package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/config"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/service"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// AuthHandler handles sign-up, sign-in and session checks.
type AuthHandler struct {
	users        service.UserService
	streaks      service.StreakService
	jwtService   auth.JWTService
	cookieName   string
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// streaks may be nil; the session check then omits the streak.
func NewAuthHandler(
	users service.UserService,
	streaks service.StreakService,
	jwtService auth.JWTService,
	authConfig config.AuthConfig,
	log *slog.Logger,
) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	name := authConfig.CookieName
	if name == "" {
		name = "smartlearn_session"
	}
	return &AuthHandler{
		users:        users,
		streaks:      streaks,
		jwtService:   jwtService,
		cookieName:   name,
		cookieSecure: authConfig.CookieSecure,
		logger:       log.With(slog.String("component", "auth_handler")),
	}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.users.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict,
				"This email is already registered. Please sign in instead.")
			return
		}
		HandleAPIError(w, r, err, "Error creating account. Please try again.")
		return
	}

	h.startSession(w, r, http.StatusCreated, "Account created successfully", res)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.users.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "An error occurred. Please try again.")
		return
	}

	h.startSession(w, r, http.StatusOK, "Signed in successfully", res)
}

// startSession issues a token for res.User, sets the session cookie and
// writes {user, streak, token}.
func (h *AuthHandler) startSession(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	res *service.AuthResult,
) {
	token, err := h.jwtService.GenerateToken(r.Context(), res.User.ID)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to generate token",
			slog.String("error", err.Error()),
			slog.String("user_id", res.User.ID.String()))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	lifetime := h.jwtService.TokenLifetime()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		Expires:  time.Now().Add(lifetime),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	shared.RespondWithSuccess(w, r, status, map[string]any{
		"message":    message,
		"user":       userToResponse(res.User),
		"streak":     streakToResponse(res.Streak),
		"token":      token,
		"expires_at": time.Now().Add(lifetime).UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout by expiring the session cookie.
// Tokens are stateless, so a bearer token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

// CheckAuth handles GET /api/auth/check. It must run behind the optional
// auth middleware and never fails for anonymous callers.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	u, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		HandleAPIError(w, r, err, "Failed to load account")
		return
	}

	var streak *domain.StudyStreak
	if h.streaks != nil {
		summary, err := h.streaks.GetStreak(r.Context(), userID)
		if err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).Warn("failed to load streak",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		} else if summary.Streak.TotalLogins > 0 {
			streak = &summary.Streak
		}
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": struct {
			*UserResponse
			Streak *StreakResponse `json:"streak"`
		}{userToResponse(u), streakToResponse(streak)},
	})
}
