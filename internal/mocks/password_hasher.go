package mocks

import (
	"errors"
	"strings"

	"github.com/smartlearn/smartlearn-api/internal/service/auth"
)

// ErrPasswordMismatch is returned by MockPasswordHasher.Compare on mismatch.
var ErrPasswordMismatch = errors.New("password mismatch")

// MockPasswordHasher implements auth.PasswordHasher without bcrypt's cost.
// Hashes are the password prefixed with "hashed:".
type MockPasswordHasher struct {
	HashErr error
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements auth.PasswordHasher.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return "hashed:" + password, nil
}

// Compare implements auth.PasswordHasher.
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	if strings.TrimPrefix(hashedPassword, "hashed:") != password || !strings.HasPrefix(hashedPassword, "hashed:") {
		return ErrPasswordMismatch
	}
	return nil
}
