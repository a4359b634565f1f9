package generation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"status 429", &APIError{StatusCode: 429}, KindQuota},
		{"resource exhausted", &APIError{StatusCode: 400, Status: "RESOURCE_EXHAUSTED"}, KindQuota},
		{"status 401", &APIError{StatusCode: 401}, KindInvalidCredential},
		{"permission denied", &APIError{StatusCode: 403, Status: "PERMISSION_DENIED"}, KindInvalidCredential},
		{"wrapped api error", fmt.Errorf("call: %w", &APIError{StatusCode: 429}), KindQuota},
		{"quota text", errors.New("You exceeded your current quota"), KindQuota},
		{"rate limit text", errors.New("Rate limit reached for requests"), KindQuota},
		{"invalid key text", errors.New("API key not valid"), KindInvalidCredential},
		{"rate word", errors.New("rate exceeded for project"), KindQuota},
		{"invalid word", errors.New("Invalid key supplied"), KindInvalidCredential},
		{"403 text", errors.New("403 forbidden"), KindInvalidCredential},
		{"forbidden text", errors.New("request forbidden by policy"), KindInvalidCredential},
		{"empty", fmt.Errorf("x: %w", ErrEmptyResponse), KindEmptyResponse},
		{"blocked", ErrContentBlocked, KindBlocked},
		{"generate is not a rate limit", errors.New("failed to generate content"), KindUnexpected},
		{"other", errors.New("EOF"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestGenerationErrorIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	err := error(&GenerationError{Kind: KindQuota, Attempts: 3, Err: cause})

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
	assert.Contains(t, err.Error(), "3 attempt")
}
