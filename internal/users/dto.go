package users

import (
	"time"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	Status    enums.UserStatus `json:"status"`
	Roles     []string         `json:"roles"`
	Profile   *ProfileDTO      `json:"profile,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProfileDTO is the public-facing slice of a user's profile.
type ProfileDTO struct {
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   string  `json:"avatar_url"`
}

// RegisterUserDTO holds the data required to persist a new standard user.
type RegisterUserDTO struct {
	Email        string
	PasswordHash string
	DisplayName  string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	dto := &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Status:    u.Status,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Profile != nil {
		dto.Profile = &ProfileDTO{
			DisplayName: u.Profile.DisplayName,
			Bio:         u.Profile.Bio,
			AvatarURL:   u.Profile.AvatarURL,
		}
	}
	return dto
}
