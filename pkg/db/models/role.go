package models

import (
	"time"

	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// Role is a platform-level permission grouping assignable to users.
type Role struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Name      enums.RoleName `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}
