package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/generation"
	"github.com/smartlearn/smartlearn-api/internal/service"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
	"github.com/smartlearn/smartlearn-api/internal/store"
	"github.com/smartlearn/smartlearn-api/internal/study"
)

// Messages shown for the two sign-in failures.
const (
	MsgUnknownEmail  = "No account found with this email. Please sign up first."
	MsgWrongPassword = "Incorrect password. Please try again."
)

// validationErrors are domain errors whose text is safe to show as-is.
var validationErrors = []error{
	domain.ErrNameTooShort,
	domain.ErrEmptyEmail,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrEmptyPassword,
	domain.ErrEmptyTopic,
	domain.ErrEmptyQuery,
	domain.ErrQueryTooLong,
	domain.ErrNegativeCount,
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyTopic),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Session expired, please sign in again"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, service.ErrUnknownEmail):
		return MsgUnknownEmail
	case errors.Is(err, service.ErrWrongPassword):
		return MsgWrongPassword
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrHistoryNotFound):
		return "History entry not found"
	case errors.Is(err, store.ErrBookmarkNotFound):
		return "Bookmark not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrEmailExists):
		return "An account with this email already exists"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEmptyTopic):
		for _, v := range validationErrors {
			if errors.Is(err, v) {
				return capitalize(v.Error())
			}
		}
		return "Validation failed"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, study.ErrTooFewItems),
		errors.Is(err, study.ErrMalformedResponse):
		return "The AI returned unusable content, please try again"

	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	}

	var genErr *generation.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case generation.KindQuota:
			return "AI service quota exhausted, please try again later"
		case generation.KindBlocked:
			return "The AI declined to answer this topic"
		default:
			return "Content generation failed"
		}
	}

	return "An unexpected error occurred"
}

// HandleAPIError writes the error response for err. defaultMsg replaces the
// generic message of unexpected (500) errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" &&
		msg == "An unexpected error occurred" {
		msg = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}

// HandleValidationError writes a 400 for request decoding and struct
// validation failures.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError turns a validator message into a short
// user-facing one.
func SanitizeValidationError(err error) string {
	if err == nil {
		return "Validation error"
	}
	errMsg := err.Error()

	// Key: 'SignUpRequest.Email' Error:Field validation for 'Email' failed on the 'email' tag
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	if errors.Is(err, shared.ErrEmptyBody) {
		return "Request body is required"
	}
	return "Invalid request format"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "must not be negative"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
