package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Password and name bounds. 72 bytes is bcrypt's input limit.
const (
	MinNameLength     = 2
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User validation errors.
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrNameTooShort        = errors.New("name must be at least 2 characters long")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User is a registered learner.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // plaintext, only set between sign-up and hashing
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser builds a User from sign-up input. The email is normalised to lower
// case. The caller must hash Password before the user is stored.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks that the user is well formed. A user without a plaintext
// password must carry a hash.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if utf8.RuneCountInString(u.Name) < MinNameLength {
		return ErrNameTooShort
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validEmail(u.Email) {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		switch {
		case len(u.Password) < MinPasswordLength:
			return ErrPasswordTooShort
		case len(u.Password) > MaxPasswordLength:
			return ErrPasswordTooLong
		}
		return nil
	}
	if u.HashedPassword == "" {
		return ErrEmptyPassword
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domainPart := email[at+1:]
	dot := strings.Index(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1
}
