package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// User represents the canonical identity entity.
//
// TokenVersion only ever moves forward. Every refresh token embeds the
// version current at mint time, so bumping it invalidates all outstanding
// tokens at once.
type User struct {
	ID           int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	Status       enums.UserStatus `gorm:"column:status;type:text;not null;default:active"`
	TokenVersion int              `gorm:"column:token_version;not null;default:1"`
	Roles        []Role           `gorm:"many2many:user_roles"`
	Profile      *Profile         `gorm:"foreignKey:UserID"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// RoleNames flattens the user's roles for token claims.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name.String())
	}
	return names
}
