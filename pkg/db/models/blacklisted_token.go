package models

import "time"

// BlacklistedToken records one explicitly revoked refresh token.
//
// ExpiresAt mirrors the token's own expiry so the prune job can drop the row
// once the token would have died anyway. Rows are never updated.
type BlacklistedToken struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_blacklisted_tokens_user_token"`
	Token     string    `gorm:"column:token;type:text;not null;uniqueIndex:idx_blacklisted_tokens_user_token"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
