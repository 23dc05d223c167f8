package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gartanggali/resort-backend/config"
	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/kafka"
	"github.com/gartanggali/resort-backend/internal/repository"
	"github.com/gartanggali/resort-backend/internal/token"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultOTPTTL     = 10 * time.Minute
	oauthStateTTL     = 10 * time.Minute
	bcryptCost        = 10
	otpDigits         = 6

	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	CreateAdmin(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	SendResetOTP(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	GoogleLoginURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, state, code string) (*domain.User, string, error)
	SessionTTL() time.Duration
}

// StateStore holds one-shot OAuth state nonces between redirect and callback.
type StateStore interface {
	SaveOAuthState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, state string) (bool, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type RegisterInput struct {
	Name     string `json:"userName"`
	Email    string `json:"userEmail"`
	Password string `json:"password"`
}

type AuthService struct {
	users              repository.UserRepository
	codec              *token.Codec
	states             StateStore
	producer           Producer
	notificationsTopic string
	sessionTTL         time.Duration
	otpTTL             time.Duration
	oauth              *oauth2.Config
	logger             *zap.Logger
}

type AuthServiceOption func(*AuthService)

func WithSessionTTL(d time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

func WithOTPTTL(d time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if d > 0 {
			s.otpTTL = d
		}
	}
}

func WithNotificationsTopic(topic string) AuthServiceOption {
	return func(s *AuthService) {
		s.notificationsTopic = topic
	}
}

func WithGoogle(cfg config.GoogleConfig) AuthServiceOption {
	return func(s *AuthService) {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}
}

func NewAuthService(
	users repository.UserRepository,
	codec *token.Codec,
	states StateStore,
	producer Producer,
	logger *zap.Logger,
	opts ...AuthServiceOption,
) *AuthService {
	service := &AuthService{
		users:      users,
		codec:      codec,
		states:     states,
		producer:   producer,
		sessionTTL: defaultSessionTTL,
		otpTTL:     defaultOTPTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, input, domain.RoleUser)
}

func (s *AuthService) CreateAdmin(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, input, domain.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput, role domain.Role) (*domain.User, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: please provide name, email, and password", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the user and a signed session token. Unknown email and wrong
// password are not distinguished.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: please provide email and password", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	// Google-provisioned accounts have no local password.
	if user.PasswordHash == "" {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	session, err := s.codec.IssueSession(user.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return user, session, nil
}

// SendResetOTP emits a one-time code for password reset. An unknown email
// reports success without sending anything, so the endpoint cannot be used
// to probe for accounts.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetResetOTP(ctx, user.ID, string(hash), time.Now().Add(s.otpTTL)); err != nil {
		return err
	}

	if s.producer != nil && s.notificationsTopic != "" {
		event := kafka.Event{Type: kafka.EventPasswordResetOTP, Email: user.Email, OTP: code}
		if err := s.producer.Publish(ctx, s.notificationsTopic, user.Email, event); err != nil {
			s.logger.Warn("publish otp notification failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *AuthService) VerifyResetOTP(ctx context.Context, email, code string) error {
	_, err := s.checkOTP(ctx, email, code)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrValidation)
	}

	user, err := s.checkOTP(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) checkOTP(ctx context.Context, email, code string) (*domain.User, error) {
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and otp are required", domain.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidOTP
	}
	if user.ResetOTPHash == "" || user.ResetOTPExpiresAt == nil || user.ResetOTPExpiresAt.Before(time.Now()) {
		return nil, domain.ErrInvalidOTP
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ResetOTPHash), []byte(code)); err != nil {
		return nil, domain.ErrInvalidOTP
	}
	return user, nil
}

func (s *AuthService) GoogleLoginURL(ctx context.Context) (string, error) {
	if s.oauth == nil {
		return "", domain.ErrNotFound
	}
	state := uuid.NewString()
	if err := s.states.SaveOAuthState(ctx, state, oauthStateTTL); err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// GoogleCallback validates the state nonce, exchanges the code and signs the
// caller in, provisioning an account on first login.
func (s *AuthService) GoogleCallback(ctx context.Context, state, code string) (*domain.User, string, error) {
	if s.oauth == nil {
		return nil, "", domain.ErrNotFound
	}

	known, err := s.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		return nil, "", err
	}
	if !known {
		return nil, "", domain.ErrInvalidCredentials
	}

	oauthToken, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	profile, err := fetchGoogleProfile(ctx, s.oauth.Client(ctx, oauthToken))
	if err != nil {
		return nil, "", err
	}
	if profile.Email == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, profile.Email)
	if errors.Is(err, domain.ErrNotFound) {
		user = &domain.User{
			Name:  profile.Name,
			Email: strings.ToLower(profile.Email),
			Role:  domain.RoleUser,
		}
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		return nil, "", err
	}

	session, err := s.codec.IssueSession(user.ID, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return user, session, nil
}

type googleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func fetchGoogleProfile(ctx context.Context, client *http.Client) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return googleProfile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("google userinfo: unexpected status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, err
	}
	return profile, nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

var _ AuthUseCase = (*AuthService)(nil)
