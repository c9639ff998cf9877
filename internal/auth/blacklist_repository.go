package auth

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
)

// BlacklistRepository wraps GORM operations for blacklisted_tokens.
type BlacklistRepository struct {
	db *gorm.DB
}

// NewBlacklistRepository builds a repository bound to the provided DB.
func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// IsBlacklisted reports whether the exact token string has been revoked.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BlacklistedToken{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save persists a blacklist row. Re-blacklisting the same (user, token) pair
// is a no-op rather than an error.
func (r *BlacklistRepository) Save(ctx context.Context, entry *models.BlacklistedToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "token"}},
			DoNothing: true,
		}).
		Create(entry).Error
}

// PruneExpired hard-deletes rows whose expiry has passed and returns how many
// were removed. Runs from the cron worker, never on the request path.
func (r *BlacklistRepository) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
