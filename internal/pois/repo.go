package pois

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

// Repository wraps GORM operations for points of interest.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a POI row.
func (r *Repository) Create(ctx context.Context, poi *models.POI) error {
	return r.db.WithContext(ctx).Create(poi).Error
}

// FindByUUID returns the POI with the given public identifier.
func (r *Repository) FindByUUID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.POI, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var poi models.POI
	err := query.
		Where("uuid = ?", id).
		First(&poi).Error
	if err != nil {
		return nil, err
	}
	return &poi, nil
}

// FindByQRCode returns the POI registered under the scanned code.
func (r *Repository) FindByQRCode(ctx context.Context, code string) (*models.POI, error) {
	var poi models.POI
	err := r.db.WithContext(ctx).
		Where("qr_code = ?", code).
		First(&poi).Error
	if err != nil {
		return nil, err
	}
	return &poi, nil
}

// Save persists the mutable POI fields in one statement.
func (r *Repository) Save(ctx context.Context, poi *models.POI) error {
	return r.db.WithContext(ctx).
		Model(&models.POI{}).
		Where("id = ?", poi.ID).
		Updates(map[string]any{
			"name":        poi.Name,
			"description": poi.Description,
			"status":      poi.Status,
			"coord_x":     poi.CoordX,
			"coord_y":     poi.CoordY,
			"nfc_tag":     poi.NFCTag,
		}).Error
}

// SoftDelete tombstones the POI row.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.POI{}).Error
}

// List returns one keyset page of POIs, newest first, plus the cursor for
// the next page.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.POI, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.POI
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pageSize + 1).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
