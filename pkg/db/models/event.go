package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// Event is a scheduled happening attached to a category.
type Event struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        uuid.UUID         `gorm:"column:uuid;type:uuid;not null;uniqueIndex"`
	Title       string            `gorm:"column:title;not null"`
	Description *string           `gorm:"column:description"`
	Status      enums.EventStatus `gorm:"column:status;type:text;not null;default:draft"`
	StartDate   time.Time         `gorm:"column:start_date;not null"`
	EndDate     time.Time         `gorm:"column:end_date;not null"`
	CategoryID  int64             `gorm:"column:category_id;not null;index"`
	Category    *EventCategory    `gorm:"foreignKey:CategoryID"`
	Capacity    *int              `gorm:"column:capacity"`
	PriceCents  *int64            `gorm:"column:price_cents"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

// BeforeCreate assigns the public identifier on first insert.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	return nil
}
