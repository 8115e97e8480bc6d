package service

import (
	"context"
	"fmt"

	"mindmetric/internal/domain"
	"mindmetric/internal/dto"
)

// UserService exposes profile reads and demographics updates.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	UpdateDemographics(ctx context.Context, userID string, req dto.UpdateDemographicsRequest) error
}

type userService struct {
	userRepo domain.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo domain.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("User not found with ID: %s", userID))
	}
	return &dto.UserProfileResponse{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.Name,
		ProfilePictureURL: user.ProfilePictureURL,
		Demographics:      user.Demographics,
	}, nil
}

func (s *userService) UpdateDemographics(ctx context.Context, userID string, req dto.UpdateDemographicsRequest) error {
	if req.Age < 0 || req.Age > 120 {
		return domain.NewOutOfRangeError("age", req.Age, 0, 120)
	}
	return s.userRepo.UpdateDemographics(ctx, userID, domain.Demographics{
		Age:       req.Age,
		Gender:    req.Gender,
		Education: req.Education,
		Country:   req.Country,
	})
}
