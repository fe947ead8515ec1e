package services

import (
	"context"

	"github.com/somo-app/SomoAppBack/internal/models"
	"github.com/somo-app/SomoAppBack/internal/repository"
)

type profileUpdater interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdateUserProfileInput) (*models.UserProfile, error)
}

type ProfileService struct {
	profileRepo profileUpdater
}

func NewProfileService(profileRepo profileUpdater) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdateProfile merges the provided fields into the stored profile; nil
// fields are left as they were.
func (s *ProfileService) UpdateProfile(
	ctx context.Context,
	userID int64,
	input repository.UpdateUserProfileInput,
) (*models.UserProfile, error) {
	return s.profileRepo.UpdatePartial(ctx, userID, input)
}

// SetAvatar stores the uploaded avatar reference on the profile.
func (s *ProfileService) SetAvatar(ctx context.Context, userID int64, avatarURL string) (*models.UserProfile, error) {
	return s.profileRepo.UpdatePartial(ctx, userID, repository.UpdateUserProfileInput{
		AvatarURL: &avatarURL,
	})
}
