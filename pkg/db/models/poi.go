package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// POI is a physical point of interest reachable via QR code or NFC tag.
type POI struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        uuid.UUID       `gorm:"column:uuid;type:uuid;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Status      enums.POIStatus `gorm:"column:status;type:text;not null;default:active"`
	CoordX      float64         `gorm:"column:coord_x;not null"`
	CoordY      float64         `gorm:"column:coord_y;not null"`
	QRCode      string          `gorm:"column:qr_code;not null;uniqueIndex"`
	NFCTag      *string         `gorm:"column:nfc_tag"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

// BeforeCreate assigns the public identifier on first insert.
func (p *POI) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}
