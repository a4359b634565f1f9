package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
	"github.com/smartlearn/smartlearn-api/internal/service/auth"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// AuthResult is returned by sign-up and sign-in. Streak is nil when the
// streak could not be updated; that failure never blocks authentication.
type AuthResult struct {
	User   *domain.User
	Streak *domain.StudyStreak
}

// UserService provides account operations.
type UserService interface {
	// SignUp validates and stores a new account, then records the day's
	// activity. Returns store.ErrEmailExists when the email is taken.
	SignUp(ctx context.Context, name, email, password string) (*AuthResult, error)

	// SignIn checks credentials and records the day's activity. Returns
	// ErrUnknownEmail or ErrWrongPassword on failure.
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users   store.UserStore
	hasher  auth.PasswordHasher
	streaks StreakService
	logger  *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	streaks StreakService,
	log *slog.Logger,
) *UserServiceImpl {
	if log == nil {
		log = slog.Default()
	}
	return &UserServiceImpl{
		users:   users,
		hasher:  hasher,
		streaks: streaks,
		logger:  log.With(slog.String("component", "user_service")),
	}
}

// SignUp implements UserService.
func (s *UserServiceImpl) SignUp(ctx context.Context, name, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		log.DebugContext(ctx, "sign-up rejected", slog.String("reason", err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		log.ErrorContext(ctx, "failed to hash password", slog.String("error", err.Error()))
		return nil, NewServiceError("user", "signup", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.DebugContext(ctx, "sign-up with existing email")
			return nil, err
		}
		log.ErrorContext(ctx, "failed to save user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, NewServiceError("user", "signup", err)
	}

	log.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Streak: s.recordActivity(ctx, user.ID)}, nil
}

// SignIn implements UserService.
func (s *UserServiceImpl) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownEmail
		}
		log.ErrorContext(ctx, "failed to load user for sign-in", slog.String("error", err.Error()))
		return nil, NewServiceError("user", "signin", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		log.DebugContext(ctx, "sign-in with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrWrongPassword
	}

	log.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Streak: s.recordActivity(ctx, user.ID)}, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		return nil, NewServiceError("user", "get", err)
	}
	return user, nil
}

func (s *UserServiceImpl) recordActivity(ctx context.Context, userID uuid.UUID) *domain.StudyStreak {
	if s.streaks == nil {
		return nil
	}
	streak, err := s.streaks.RecordActivity(ctx, userID)
	if err != nil {
		// Already logged by the streak service.
		return nil
	}
	return streak
}
