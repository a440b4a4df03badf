package usecase

import (
	"context"
	"fmt"

	"parking-booking/internal/data/repository"
	"parking-booking/internal/dto/response"
	"parking-booking/pkg/apperror"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, actor utils.CurrentUser) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, actor utils.CurrentUser) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", actor.ID.String(), apperror.ErrUserNotFound)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
