package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/poiquest/poiquest-backend/internal/categories"
	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// EventDTO is the API shape of an event.
type EventDTO struct {
	ID          uuid.UUID               `json:"id"`
	Title       string                  `json:"title"`
	Description *string                 `json:"description,omitempty"`
	Status      enums.EventStatus       `json:"status"`
	StartDate   time.Time               `json:"start_date"`
	EndDate     time.Time               `json:"end_date"`
	Category    *categories.CategoryDTO `json:"category,omitempty"`
	Capacity    *int                    `json:"capacity,omitempty"`
	PriceCents  *int64                  `json:"price_cents,omitempty"`
	Images      []media.ImageDTO        `json:"images"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ImageRefInput is one storage locator supplied on an event write. Order in
// the request decides display order and the first entry becomes primary.
type ImageRefInput struct {
	Bucket  string `json:"bucket" validate:"required"`
	FileKey string `json:"file_key" validate:"required"`
}

// CreateEventInput captures the payload for creating an event.
type CreateEventInput struct {
	Title       string             `json:"title" validate:"required,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Status      *enums.EventStatus `json:"status" validate:"omitempty"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndDate     time.Time          `json:"end_date" validate:"required"`
	CategoryID  uuid.UUID          `json:"category_id" validate:"required"`
	Capacity    *int               `json:"capacity" validate:"omitempty,min=0"`
	PriceCents  *int64             `json:"price_cents" validate:"omitempty,min=0"`
	Images      []ImageRefInput    `json:"images"`
}

// UpdateEventInput captures the mutable event fields. Nil pointers leave the
// stored value untouched. A nil Images slice leaves the image set alone; an
// empty non-nil slice removes every image.
type UpdateEventInput struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Status      *enums.EventStatus `json:"status" validate:"omitempty"`
	StartDate   *time.Time         `json:"start_date"`
	EndDate     *time.Time         `json:"end_date"`
	CategoryID  *uuid.UUID         `json:"category_id"`
	Capacity    *int               `json:"capacity" validate:"omitempty,min=0"`
	PriceCents  *int64             `json:"price_cents" validate:"omitempty,min=0"`
	Images      *[]ImageRefInput   `json:"images"`
}

// EventListDTO is one page of events plus the cursor for the next page.
type EventListDTO struct {
	Items      []EventDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps an event row to its DTO. Images are filled in separately.
func FromModel(e *models.Event) *EventDTO {
	if e == nil {
		return nil
	}
	return &EventDTO{
		ID:          e.UUID,
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Category:    categories.FromModel(e.Category),
		Capacity:    e.Capacity,
		PriceCents:  e.PriceCents,
		Images:      []media.ImageDTO{},
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
