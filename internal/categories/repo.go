package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
)

// Repository wraps GORM operations for event categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a category row.
func (r *Repository) Create(ctx context.Context, category *models.EventCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// FindByUUID returns the category with the given public identifier.
func (r *Repository) FindByUUID(ctx context.Context, id uuid.UUID) (*models.EventCategory, error) {
	var category models.EventCategory
	err := r.db.WithContext(ctx).
		Where("uuid = ?", id).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName returns the category with the given name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.EventCategory, error) {
	var category models.EventCategory
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns all categories ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.EventCategory, error) {
	var rows []models.EventCategory
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Save persists the mutable category fields.
func (r *Repository) Save(ctx context.Context, category *models.EventCategory) error {
	return r.db.WithContext(ctx).
		Model(&models.EventCategory{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
		}).Error
}

// SoftDelete tombstones the category row.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.EventCategory{}).Error
}

// CountEvents reports how many live events reference the category.
func (r *Repository) CountEvents(ctx context.Context, categoryID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}
