package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

// Repository exposes user-related persistence operations. Multi-step write
// paths construct it over their transaction handle.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user together with its role associations.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email. Soft-deleted
// rows are only visible when includeDeleted is set.
func (r *Repository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.User, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var user models.User
	if err := query.Preload("Roles").Preload("Profile").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their numeric id.
func (r *Repository) FindByID(ctx context.Context, id int64, includeDeleted bool) (*models.User, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var user models.User
	if err := query.Preload("Roles").Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Save persists the mutable credential fields of an existing user in one
// statement, so a password change and its version bump land atomically.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password_hash": user.PasswordHash,
			"status":        user.Status,
			"token_version": user.TokenVersion,
		}).Error
}

// List returns all non-deleted users with their roles and profiles.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := r.db.WithContext(ctx).Preload("Roles").Preload("Profile").Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// SoftDelete marks the user row deleted.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}

// RoleRepository resolves role rows for assignment and token claims.
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository constructs a role repo bound to the provided GORM DB.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByName loads a role by its canonical name.
func (r *RoleRepository) FindByName(ctx context.Context, name enums.RoleName) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
