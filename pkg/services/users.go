package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/repositories"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

// UserService defines the interface for user operations.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update returns ErrLastAdmin if it would demote the last admin.
	Update(ctx context.Context, user *models.User) error
	// Delete returns ErrLastAdmin if id is the last admin.
	Delete(ctx context.Context, id uuid.UUID) error
}

// userService implements UserService.
type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStore("list users", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStore("get user", err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleSales
	}
	user.Email = strings.TrimSpace(user.Email)
	if err := rules.ValidateUser(user); err != nil {
		return err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return apperrors.WrapStore("create user", err)
	}

	s.logger.Info("Created user",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role))
	return nil
}

func (s *userService) Update(ctx context.Context, user *models.User) error {
	user.Email = strings.TrimSpace(user.Email)
	if err := rules.ValidateUser(user); err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.WrapStore("update user", err)
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperrors.WrapStore("delete user", err)
	}

	s.logger.Info("Deleted user", zap.String("user_id", id.String()))
	return nil
}
