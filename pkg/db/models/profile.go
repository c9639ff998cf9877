package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAvatarURL is assigned to freshly registered profiles.
const DefaultAvatarURL = "https://static.productionready.io/images/smiley-cyrus.jpg"

// Profile carries the public-facing attributes of a user.
type Profile struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64          `gorm:"column:user_id;not null;uniqueIndex"`
	DisplayName string         `gorm:"column:display_name;not null"`
	Bio         *string        `gorm:"column:bio"`
	AvatarURL   string         `gorm:"column:avatar_url;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}
