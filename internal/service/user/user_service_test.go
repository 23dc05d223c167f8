package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, update repository.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetResetOTP(ctx context.Context, id int64, otpHash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, otpHash, expiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) ClearExpiredResetOTPs(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestUserService_Profile(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := NewUserService(mockUsers)

	ctx := context.Background()
	mockUsers.On("GetByID", ctx, int64(3)).Return(&domain.User{ID: 3, Name: "Asha"}, nil).Once()

	user, err := service.Profile(ctx, 3)
	assert.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
}

func TestUserService_Profile_NotFound(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := NewUserService(mockUsers)

	ctx := context.Background()
	mockUsers.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrNotFound).Once()

	_, err := service.Profile(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_UpdateProfile_RequiresField(t *testing.T) {
	service := NewUserService(&MockUserRepository{})

	_, err := service.UpdateProfile(context.Background(), 3, repository.ProfileUpdate{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_UpdateProfile_Success(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := NewUserService(mockUsers)

	ctx := context.Background()
	bio := "Mountain person"
	update := repository.ProfileUpdate{Bio: &bio}
	mockUsers.On("UpdateProfile", ctx, int64(3), update).Return(&domain.User{ID: 3, Bio: bio}, nil).Once()

	user, err := service.UpdateProfile(ctx, 3, update)
	assert.NoError(t, err)
	assert.Equal(t, bio, user.Bio)
}
