package analytics

import (
	"context"

	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// Repository runs the aggregate report queries against the primary database.
type Repository struct {
	db *db.Client
}

// NewRepository builds a repository bound to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{db: client}
}

// Overview collects the headline counts in one round trip per aggregate.
func (r *Repository) Overview(ctx context.Context) (*OverviewDTO, error) {
	var out OverviewDTO
	conn := r.db.DB().WithContext(ctx)

	if err := conn.Model(&models.User{}).Count(&out.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.User{}).Where("status = ?", enums.UserStatusActive).Count(&out.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Event{}).Count(&out.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Event{}).Where("status = ?", enums.EventStatusPublished).Count(&out.PublishedEvents).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.POI{}).Count(&out.TotalPOIs).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.EventCategory{}).Count(&out.TotalCategories).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// EventsByCategory counts live events per category, busiest first.
func (r *Repository) EventsByCategory(ctx context.Context) ([]CategoryCountDTO, error) {
	var rows []CategoryCountDTO
	err := r.db.Raw(ctx, `
		SELECT c.name AS category_name, COUNT(e.id) AS event_count
		FROM event_categories c
		LEFT JOIN events e ON e.category_id = c.id AND e.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		GROUP BY c.name
		ORDER BY event_count DESC, category_name ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// RegistrationsByMonth counts new accounts per calendar month over the last
// twelve months.
func (r *Repository) RegistrationsByMonth(ctx context.Context) ([]MonthlyCountDTO, error) {
	var rows []MonthlyCountDTO
	err := r.db.Raw(ctx, `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS count
		FROM users
		WHERE deleted_at IS NULL
		  AND created_at >= date_trunc('month', now()) - INTERVAL '11 months'
		GROUP BY month
		ORDER BY month ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
