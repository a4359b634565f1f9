package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/redact"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

// DefaultCookieName is used when no session cookie name is configured.
const DefaultCookieName = "smartlearn_session"

// AuthMiddleware authenticates requests by session token. The token is read
// from the session cookie first, then from an "Authorization: Bearer" header.
type AuthMiddleware struct {
	jwtService auth.JWTService
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, cookieName string) *AuthMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		cookieName: cookieName,
	}
}

// CookieName reports the session cookie name.
func (m *AuthMiddleware) CookieName() string {
	return m.cookieName
}

// Authenticate rejects requests without a valid session token and adds the
// user ID to the context of the rest.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticate(r)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Session expired, please sign in again")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate token", "error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), userID)))
	})
}

// Optional adds the user ID to the context when the request carries a valid
// token. Requests without one, or with a bad one, continue anonymously.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.authenticate(r)
		if err != nil {
			if !errors.Is(err, auth.ErrMissingToken) {
				logger.FromContext(r.Context()).Debug("ignoring invalid session token", "error", err.Error())
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), userID)))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (uuid.UUID, error) {
	token := m.token(r)
	if token == "" {
		return uuid.Nil, auth.ErrMissingToken
	}
	claims, err := m.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		return uuid.Nil, err
	}
	if claims == nil || claims.UserID == uuid.Nil {
		return uuid.Nil, auth.ErrInvalidToken
	}
	return claims.UserID, nil
}

func (m *AuthMiddleware) token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}
