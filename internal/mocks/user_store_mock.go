package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/smartlearn/smartlearn-api/internal/domain"
	"github.com/smartlearn/smartlearn-api/internal/store"
)

// TestifyMockUserStore is a testify mock of store.UserStore, for tests that
// assert on the exact lookups a service performs.
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

func (m *TestifyMockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *TestifyMockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return userResult(m.Called(ctx, email))
}

// userResult unpacks a (*domain.User, error) pair; a nil first return is
// allowed.
func userResult(args mock.Arguments) (*domain.User, error) {
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}
