package account_test

import (
	"context"

	account "github.com/goliatone/go-account"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements account.UserStore for testing
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserStore) GetActiveByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Create(ctx context.Context, record *account.User, criteria ...repository.InsertCriteria) (*account.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, record *account.User, criteria ...repository.UpdateCriteria) (*account.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) Restore(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStore) TrackSuccessfulLogin(ctx context.Context, user *account.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserStore) ListActive(ctx context.Context) ([]*account.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*account.User)
	return users, args.Error(1)
}

// MockHasher implements account.PasswordAuthenticator for testing
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) ComparePasswordAndHash(password, hash string) error {
	return m.Called(password, hash).Error(0)
}
