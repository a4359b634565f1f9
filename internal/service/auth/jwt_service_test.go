package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartlearn/smartlearn-api/internal/config"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	userID := uuid.New()

	svc := newHMACJWTService(testSecret, tokenLifetime, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, tokenLifetime, svc.TokenLifetime())
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokenLifetime := 60 * time.Minute
	wrongSecret := "wrong-secret-that-is-long-enough-for-testing"
	userID := uuid.New()

	issue := func(secret string, at time.Time) string {
		token, err := newHMACJWTService(secret, tokenLifetime, fixedClock(at)).
			GenerateToken(context.Background(), userID)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   string
		checkAt time.Time
		secret  string
		wantErr error
	}{
		{
			name:    "valid token",
			token:   issue(testSecret, fixedTime),
			checkAt: fixedTime.Add(time.Minute),
			secret:  testSecret,
		},
		{
			name:    "within clock skew after expiry",
			token:   issue(testSecret, fixedTime),
			checkAt: fixedTime.Add(tokenLifetime + time.Minute),
			secret:  testSecret,
		},
		{
			name:    "expired token",
			token:   issue(testSecret, fixedTime),
			checkAt: fixedTime.Add(tokenLifetime + time.Hour),
			secret:  testSecret,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "invalid signature",
			token:   issue(testSecret, fixedTime),
			checkAt: fixedTime,
			secret:  wrongSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   "this.is.not.a.valid.jwt.token",
			checkAt: fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			checkAt: fixedTime,
			secret:  testSecret,
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newHMACJWTService(tt.secret, tokenLifetime, fixedClock(tt.checkAt))
			claims, err := svc.ValidateToken(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 90})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, svc.TokenLifetime())
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, h.Compare(hash, "password123"))
	assert.Error(t, h.Compare(hash, "password124"))

	// Out-of-range costs fall back to the default rather than failing.
	assert.Equal(t, 10, NewBcryptHasher(0).cost)
}
