package user

import (
	"context"
	"fmt"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/repository"
)

type UserUseCase interface {
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, update repository.ProfileUpdate) (*domain.User, error)
}

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, update repository.ProfileUpdate) (*domain.User, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: please provide at least one field to update", domain.ErrValidation)
	}
	return s.users.UpdateProfile(ctx, userID, update)
}

var _ UserUseCase = (*UserService)(nil)
