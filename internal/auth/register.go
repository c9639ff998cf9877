package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/internal/users"
	"github.com/poiquest/poiquest-backend/pkg/config"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/security"
)

// RegisterService handles the onboarding transaction: the user row, its role
// assignment and the profile land together or not at all.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		roleRepo := users.NewRoleRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email, true); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		role, err := roleRepo.FindByName(ctx, enums.RoleUser)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup default role")
		}

		user := &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			Status:       enums.UserStatusActive,
			TokenVersion: 1,
			Roles:        []models.Role{*role},
			Profile: &models.Profile{
				DisplayName: displayName,
				AvatarURL:   models.DefaultAvatarURL,
			},
		}
		if err := userRepo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return users.FromModel(created), nil
}
