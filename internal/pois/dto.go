package pois

import (
	"time"

	"github.com/google/uuid"

	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// POIDTO is the API shape of a point of interest.
type POIDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Status      enums.POIStatus  `json:"status"`
	CoordX      float64          `json:"coord_x"`
	CoordY      float64          `json:"coord_y"`
	QRCode      string           `json:"qr_code"`
	NFCTag      *string          `json:"nfc_tag,omitempty"`
	Images      []media.ImageDTO `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ImageRefInput is one storage locator supplied on a POI write.
type ImageRefInput struct {
	Bucket  string `json:"bucket" validate:"required"`
	FileKey string `json:"file_key" validate:"required"`
}

// CreatePOIInput captures the payload for creating a point of interest.
type CreatePOIInput struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	CoordX      float64         `json:"coord_x" validate:"required"`
	CoordY      float64         `json:"coord_y" validate:"required"`
	QRCode      string          `json:"qr_code" validate:"required"`
	NFCTag      *string         `json:"nfc_tag"`
	Images      []ImageRefInput `json:"images"`
}

// UpdatePOIInput captures the mutable POI fields. Nil pointers leave the
// stored value untouched. A nil Images slice leaves the image set alone.
type UpdatePOIInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Status      *enums.POIStatus `json:"status" validate:"omitempty"`
	CoordX      *float64         `json:"coord_x"`
	CoordY      *float64         `json:"coord_y"`
	NFCTag      *string          `json:"nfc_tag"`
	Images      *[]ImageRefInput `json:"images"`
}

// POIListDTO is one page of POIs plus the cursor for the next page.
type POIListDTO struct {
	Items      []POIDTO `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// FromModel maps a POI row to its DTO. Images are filled in separately.
func FromModel(p *models.POI) *POIDTO {
	if p == nil {
		return nil
	}
	return &POIDTO{
		ID:          p.UUID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		CoordX:      p.CoordX,
		CoordY:      p.CoordY,
		QRCode:      p.QRCode,
		NFCTag:      p.NFCTag,
		Images:      []media.ImageDTO{},
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
