package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"porchboard/internal/models"
	"porchboard/internal/repositories"
)

var (
	ErrSelfRoleChange = errors.New("cannot modify your own role")
	ErrWrongPassword  = errors.New("current password is incorrect")
	ErrInvalidRole    = errors.New("role must be ADMIN or EVENT_CREATOR")
)

type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
}

// Profile is the current user's view of themselves with an embedded
// city summary.
type Profile struct {
	*models.User
	City models.CitySummary `json:"city"`
}

type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error)
	ListByCity(ctx context.Context, cityID uuid.UUID) ([]*models.User, error)
	ChangeRole(ctx context.Context, actorID, cityID, targetID uuid.UUID, role models.Role) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	cityRepo repositories.CityRepository
}

func NewUserService(userRepo repositories.UserRepository, cityRepo repositories.CityRepository) UserService {
	return &userService{
		userRepo: userRepo,
		cityRepo: cityRepo,
	}
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	city, err := s.cityRepo.GetByID(ctx, user.CityID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User: user,
		City: models.CitySummary{
			Name:             city.Name,
			Domain:           city.Domain,
			SubscriptionTier: city.SubscriptionTier,
		},
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		user.Name = strings.TrimSpace(*update.Name)
	}

	if update.Email != nil && *update.Email != user.Email {
		taken, err := s.userRepo.EmailExists(ctx, *update.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, repositories.ErrEmailTaken
		}
		user.Email = *update.Email
	}

	if update.CurrentPassword != nil && update.NewPassword != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*update.CurrentPassword)); err != nil {
			return nil, ErrWrongPassword
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now()
	return user, nil
}

func (s *userService) ListByCity(ctx context.Context, cityID uuid.UUID) ([]*models.User, error) {
	return s.userRepo.ListByCity(ctx, cityID)
}

// ChangeRole assigns a new role to another user in the same city. A
// caller can never change their own role, even on their own id.
func (s *userService) ChangeRole(ctx context.Context, actorID, cityID, targetID uuid.UUID, role models.Role) (*models.User, error) {
	if !role.Registerable() {
		return nil, ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrSelfRoleChange
	}

	if err := s.userRepo.UpdateRole(ctx, cityID, targetID, role); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
