package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

// Repository wraps GORM operations for events. Construct it over the request
// DB for reads or over the transaction handle for writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an event row.
func (r *Repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByUUID returns the event with the given public identifier.
func (r *Repository) FindByUUID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Event, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var event models.Event
	err := query.
		Preload("Category").
		Where("uuid = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Save persists the mutable event fields in one statement.
func (r *Repository) Save(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"title":       event.Title,
			"description": event.Description,
			"status":      event.Status,
			"start_date":  event.StartDate,
			"end_date":    event.EndDate,
			"category_id": event.CategoryID,
			"capacity":    event.Capacity,
			"price_cents": event.PriceCents,
		}).Error
}

// SoftDelete tombstones the event row.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Event{}).Error
}

// ListByCategory returns one keyset page of the category's events, newest
// first, plus the cursor for the next page.
func (r *Repository) ListByCategory(ctx context.Context, categoryID int64, params pagination.Params, defaultLimit int) ([]models.Event, string, error) {
	pageSize := pagination.NormalizeLimitWithDefault(params.Limit, defaultLimit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ?", categoryID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Event
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
