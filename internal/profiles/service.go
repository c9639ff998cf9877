package profiles

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

// Service exposes profile reads and updates for the authenticated user.
type Service interface {
	GetByUserID(ctx context.Context, userID int64) (*ProfileDTO, error)
	Update(ctx context.Context, userID int64, input UpdateProfileInput) (*ProfileDTO, error)
}

type service struct {
	repo profileRepository
}

// NewService builds a profile service over the provided repository.
func NewService(repo profileRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByUserID(ctx context.Context, userID int64) (*ProfileDTO, error) {
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(profile), nil
}

func (s *service) Update(ctx context.Context, userID int64, input UpdateProfileInput) (*ProfileDTO, error) {
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name must not be empty")
		}
		profile.DisplayName = name
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.AvatarURL != nil {
		url := strings.TrimSpace(*input.AvatarURL)
		if url == "" {
			url = models.DefaultAvatarURL
		}
		profile.AvatarURL = url
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save profile")
	}
	return FromModel(profile), nil
}

func (s *service) load(ctx context.Context, userID int64) (*models.Profile, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return profile, nil
}
