package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to status codes.
var (
	// ErrInvalidCredentials is the parent of every sign-in failure.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownEmail is returned by SignIn when no account uses the email.
	ErrUnknownEmail = fmt.Errorf("%w: no account found with this email", ErrInvalidCredentials)

	// ErrWrongPassword is returned by SignIn when the password does not match.
	ErrWrongPassword = fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)
)

// ServiceError adds service and operation context to an unexpected failure.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}
