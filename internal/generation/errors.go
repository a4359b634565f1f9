package generation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

// Common errors returned by the generation package.
var (
	// ErrGenerationFailed matches every terminal generation failure.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrQuotaExhausted is matched when every attempt hit quota or rate limits.
	ErrQuotaExhausted = errors.New("model quota exhausted")

	// ErrInvalidCredential is matched when no configured API key was accepted.
	ErrInvalidCredential = errors.New("invalid API key")

	// ErrEmptyResponse is returned by backends, and matched by terminal
	// errors, when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from language model")

	// ErrContentBlocked is returned when the model refuses the prompt on
	// safety grounds. It is never retried.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generation configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrNoAPIKeys is returned when a keyring is built without usable keys.
	ErrNoAPIKeys = errors.New("no API keys configured")

	// ErrNoModelAvailable is returned when discovery finds no usable model.
	ErrNoModelAvailable = errors.New("no generative model available")

	// ErrEmptyPrompt is returned when Generate is called without a prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// ErrorKind classifies a failed model call.
type ErrorKind string

// Error kinds.
const (
	KindQuota             ErrorKind = "quota"
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindEmptyResponse     ErrorKind = "empty_response"
	KindBlocked           ErrorKind = "content_blocked"
	KindUnexpected        ErrorKind = "unexpected"
)

// GenerationError is the terminal failure of Client.Generate.
type GenerationError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

// Error implements error.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s) (%s): %v", e.Attempts, e.Kind, e.Err)
}

// Unwrap exposes the last underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches ErrGenerationFailed and the sentinel for the error's kind.
func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrGenerationFailed:
		return true
	case ErrQuotaExhausted:
		return e.Kind == KindQuota
	case ErrInvalidCredential:
		return e.Kind == KindInvalidCredential
	case ErrEmptyResponse:
		return e.Kind == KindEmptyResponse
	case ErrContentBlocked:
		return e.Kind == KindBlocked
	}
	return false
}

// APIError is the transport-neutral form of an error reported by the model
// service. Backends translate their SDK errors into it.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("model API error %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Classify decides how the retry loop treats err. Structured API errors are
// inspected first; otherwise the error text is matched.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrContentBlocked):
		return KindBlocked
	case errors.Is(err, ErrEmptyResponse):
		return KindEmptyResponse
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.Status == "RESOURCE_EXHAUSTED":
			return KindQuota
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.Status == "UNAUTHENTICATED",
			apiErr.Status == "PERMISSION_DENIED":
			return KindInvalidCredential
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "429", "quota", "rate limit", "rate_limit", "ratelimit", "resource_exhausted"),
		hasWord(msg, "rate"):
		return KindQuota
	case containsAny(msg, "401", "403", "api key not valid", "api_key_invalid", "unauthenticated", "permission_denied"),
		hasWord(msg, "invalid"), hasWord(msg, "forbidden"):
		return KindInvalidCredential
	default:
		return KindUnexpected
	}
}

// hasWord reports whether word appears in s as a whole word, so "rate"
// matches "rate exceeded" but not "generate".
func hasWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
