package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventCategory groups events for discovery and filtering.
type EventCategory struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        uuid.UUID      `gorm:"column:uuid;type:uuid;not null;uniqueIndex"`
	Name        string         `gorm:"column:name;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// BeforeCreate assigns the public identifier on first insert.
func (c *EventCategory) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}
