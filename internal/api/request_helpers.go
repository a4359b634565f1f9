package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/api/shared"
	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

// getUserIDFromContext returns the user placed in the context by the auth
// middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// getPathID parses a positive integer path parameter.
func getPathID(r *http.Request, paramName string) (int64, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, paramName)
	}
	return id, nil
}

// handleUserIDAndPathID extracts the authenticated user and an integer path
// parameter, writing the error response itself when either is missing.
func handleUserIDAndPathID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, int64, bool) {
	log = logger.FromContextOrDefault(r.Context(), log)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, 0, false
	}

	id, err := getPathID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName, slog.String("value", chi.URLParam(r, paramName)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName)
		return uuid.Nil, 0, false
	}

	return userID, id, true
}

// requireUser writes a 401 and reports false for anonymous requests.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return userID, true
}

// decodeAndValidate decodes the body into v and validates it, writing a 400
// on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	return true
}
