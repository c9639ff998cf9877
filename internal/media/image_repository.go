package media

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// imageRepository wraps GORM operations for images. Write methods take the
// caller's transaction so the image diff commits with the owner row.
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository builds a repository bound to the provided DB.
func NewImageRepository(db *gorm.DB) *imageRepository {
	return &imageRepository{db: db}
}

// FindByOwner returns the owner's images ordered by sort_order. Soft-deleted
// rows are excluded unless includeDeleted is set.
func (r *imageRepository) FindByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64, includeDeleted bool) ([]models.Image, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	query := conn.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var images []models.Image
	err := query.
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Order("sort_order ASC, id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// CreateMany inserts the image rows inside the provided transaction.
func (r *imageRepository) CreateMany(ctx context.Context, tx *gorm.DB, images []*models.Image) error {
	if len(images) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(images).Error
}

// SaveMany persists sort_order and is_primary for each row in one batch.
func (r *imageRepository) SaveMany(ctx context.Context, tx *gorm.DB, images []*models.Image) error {
	if len(images) == 0 {
		return nil
	}
	for _, img := range images {
		err := tx.WithContext(ctx).
			Model(&models.Image{}).
			Where("id = ?", img.ID).
			Updates(map[string]any{
				"sort_order": img.SortOrder,
				"is_primary": img.IsPrimary,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SoftDeleteByIDs tombstones the given rows inside the provided transaction.
func (r *imageRepository) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.Image{}).Error
}

// SoftDeleteByOwner tombstones every image of the owner. Used when the owner
// itself is deleted.
func (r *imageRepository) SoftDeleteByOwner(ctx context.Context, tx *gorm.DB, ownerType enums.OwnerType, ownerID int64) error {
	return tx.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&models.Image{}).Error
}

// HasLiveByLocator reports whether any non-deleted row references the object.
// A locator removed from one set and later re-added produces a tombstoned row
// and a live row sharing the same object.
func (r *imageRepository) HasLiveByLocator(ctx context.Context, bucket, fileKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("bucket = ? AND file_key = ?", bucket, fileKey).
		Count(&count).Error
	return count > 0, err
}

// FindTombstonedBefore lists soft-deleted images older than the cutoff, up to
// limit rows. Runs from the cron sweep, never on the request path.
func (r *imageRepository) FindTombstonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Limit(limit).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// HardDeleteByIDs removes tombstoned rows for good after their objects are
// gone from storage.
func (r *imageRepository) HardDeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&models.Image{})
	return result.RowsAffected, result.Error
}
