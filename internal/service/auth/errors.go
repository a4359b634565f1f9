package auth

import "errors"

// Session token errors. The middleware maps each of them to 401 except
// ErrWeakSecret, which only surfaces at start-up.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
	ErrMissingToken     = errors.New("authentication token is missing")
	ErrWeakSecret       = errors.New("jwt secret must be at least 32 characters")
)
