package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/repository"
	"github.com/gartanggali/resort-backend/internal/token"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
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

type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) SaveOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	args := m.Called(ctx, state, ttl)
	return args.Error(0)
}

func (m *MockStateStore) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	args := m.Called(ctx, state)
	return args.Bool(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(users *MockUserRepository, producer *MockProducer, opts ...AuthServiceOption) *AuthService {
	return NewAuthService(users, token.NewCodec("test-secret"), &MockStateStore{}, producer, zap.NewNop(), opts...)
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestAuthService_Register_Success(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	mockUsers.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil).Once()

	user, err := service.Register(ctx, RegisterInput{Name: "Asha", Email: "Asha@Example.com", Password: "hunter22"})

	assert.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	mockUsers.AssertExpectations(t)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	service := newTestService(&MockUserRepository{}, &MockProducer{})

	_, err := service.Register(context.Background(), RegisterInput{Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	mockUsers.On("Create", ctx, mock.Anything).Return(domain.ErrEmailTaken).Once()

	_, err := service.Register(ctx, RegisterInput{Name: "Asha", Email: "a@x.com", Password: "hunter22"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAuthService_CreateAdmin_Role(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	mockUsers.On("Create", ctx, mock.Anything).Return(nil).Once()

	user, err := service.CreateAdmin(ctx, RegisterInput{Name: "Ops", Email: "ops@x.com", Password: "hunter22"})
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestAuthService_Login_Success(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	stored := &domain.User{ID: 3, Email: "a@x.com", PasswordHash: hashOf(t, "hunter22")}
	mockUsers.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()

	user, session, err := service.Login(ctx, "a@x.com", "hunter22")

	assert.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)

	userID, err := token.NewCodec("test-secret").VerifySession(session)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), userID)
}

func TestAuthService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name  string
		setup func(m *MockUserRepository)
		email string
		pass  string
	}{
		{
			name:  "unknown email",
			setup: func(m *MockUserRepository) { m.On("GetByEmail", ctx, "a@x.com").Return(nil, domain.ErrNotFound) },
			email: "a@x.com", pass: "hunter22",
		},
		{
			name: "wrong password",
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", ctx, "a@x.com").Return(&domain.User{ID: 3, PasswordHash: hashOf(t, "other")}, nil)
			},
			email: "a@x.com", pass: "hunter22",
		},
		{
			name: "google account without password",
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", ctx, "a@x.com").Return(&domain.User{ID: 3, PasswordHash: ""}, nil)
			},
			email: "a@x.com", pass: "hunter22",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockUsers := &MockUserRepository{}
			tc.setup(mockUsers)
			service := newTestService(mockUsers, &MockProducer{})

			_, _, err := service.Login(ctx, tc.email, tc.pass)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_SendResetOTP_PublishesCode(t *testing.T) {
	mockUsers := &MockUserRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockUsers, mockProducer, WithNotificationsTopic("notifications"))

	ctx := context.Background()
	mockUsers.On("GetByEmail", ctx, "a@x.com").Return(&domain.User{ID: 3, Email: "a@x.com"}, nil).Once()
	mockUsers.On("SetResetOTP", ctx, int64(3), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications", "a@x.com", mock.Anything).Return(nil).Once()

	err := service.SendResetOTP(ctx, "a@x.com")

	assert.NoError(t, err)
	mockUsers.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestAuthService_SendResetOTP_UnknownEmailSilent(t *testing.T) {
	mockUsers := &MockUserRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockUsers, mockProducer, WithNotificationsTopic("notifications"))

	ctx := context.Background()
	mockUsers.On("GetByEmail", ctx, "ghost@x.com").Return(nil, domain.ErrNotFound).Once()

	err := service.SendResetOTP(ctx, "ghost@x.com")

	assert.NoError(t, err)
	mockUsers.AssertNotCalled(t, "SetResetOTP")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestAuthService_SendResetOTP_WrappedNotFoundSilent(t *testing.T) {
	// Repositories may wrap the sentinel; the account oracle must stay closed
	// either way.
	mockUsers := &MockUserRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockUsers, mockProducer, WithNotificationsTopic("notifications"))

	ctx := context.Background()
	wrapped := fmt.Errorf("load user: %w", domain.ErrNotFound)
	mockUsers.On("GetByEmail", ctx, "ghost@x.com").Return(nil, wrapped).Once()

	err := service.SendResetOTP(ctx, "ghost@x.com")

	assert.NoError(t, err)
	mockUsers.AssertNotCalled(t, "SetResetOTP")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestAuthService_VerifyResetOTP(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(5 * time.Minute)
	past := time.Now().Add(-5 * time.Minute)

	testCases := []struct {
		name    string
		user    *domain.User
		code    string
		wantErr error
	}{
		{
			name:    "valid code",
			user:    &domain.User{ID: 3, ResetOTPHash: hashOf(t, "123456"), ResetOTPExpiresAt: &future},
			code:    "123456",
			wantErr: nil,
		},
		{
			name:    "wrong code",
			user:    &domain.User{ID: 3, ResetOTPHash: hashOf(t, "123456"), ResetOTPExpiresAt: &future},
			code:    "654321",
			wantErr: domain.ErrInvalidOTP,
		},
		{
			name:    "expired code",
			user:    &domain.User{ID: 3, ResetOTPHash: hashOf(t, "123456"), ResetOTPExpiresAt: &past},
			code:    "123456",
			wantErr: domain.ErrInvalidOTP,
		},
		{
			name:    "no pending otp",
			user:    &domain.User{ID: 3},
			code:    "123456",
			wantErr: domain.ErrInvalidOTP,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockUsers := &MockUserRepository{}
			mockUsers.On("GetByEmail", ctx, "a@x.com").Return(tc.user, nil).Once()
			service := newTestService(mockUsers, &MockProducer{})

			err := service.VerifyResetOTP(ctx, "a@x.com", tc.code)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	future := time.Now().Add(5 * time.Minute)
	stored := &domain.User{ID: 3, ResetOTPHash: hashOf(t, "123456"), ResetOTPExpiresAt: &future}

	mockUsers.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()
	mockUsers.On("UpdatePassword", ctx, int64(3), mock.AnythingOfType("string")).Return(nil).Once()

	err := service.ResetPassword(ctx, "a@x.com", "123456", "newpass99")
	assert.NoError(t, err)
	mockUsers.AssertExpectations(t)
}

func TestAuthService_ResetPassword_WrongCode(t *testing.T) {
	mockUsers := &MockUserRepository{}
	service := newTestService(mockUsers, &MockProducer{})

	ctx := context.Background()
	future := time.Now().Add(5 * time.Minute)
	stored := &domain.User{ID: 3, ResetOTPHash: hashOf(t, "123456"), ResetOTPExpiresAt: &future}
	mockUsers.On("GetByEmail", ctx, "a@x.com").Return(stored, nil).Once()

	err := service.ResetPassword(ctx, "a@x.com", "000000", "newpass99")
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	mockUsers.AssertNotCalled(t, "UpdatePassword")
}

func TestGenerateOTP_Format(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateOTP()
		assert.NoError(t, err)
		assert.Len(t, code, otpDigits)
	}
}
