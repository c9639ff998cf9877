package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// Image is a polymorphic attachment owned by an event or a point of interest.
//
// Among the non-deleted rows of one owner, sort_order is contiguous from 0
// and the row at sort_order 0 is the only primary.
type Image struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerType enums.OwnerType `gorm:"column:owner_type;type:text;not null;index:idx_images_owner"`
	OwnerID   int64           `gorm:"column:owner_id;not null;index:idx_images_owner"`
	Bucket    string          `gorm:"column:bucket;not null"`
	FileKey   string          `gorm:"column:file_key;not null"`
	SortOrder int             `gorm:"column:sort_order;not null;default:0"`
	IsPrimary bool            `gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

// Key is the structural identity of an image within its owner's set.
func (i Image) Key() string {
	return i.Bucket + "/" + i.FileKey
}
