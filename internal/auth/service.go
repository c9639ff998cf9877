package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/internal/users"
	pkgAuth "github.com/poiquest/poiquest-backend/pkg/auth"
	"github.com/poiquest/poiquest-backend/pkg/config"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Refresh failures reveal as little as possible. Expiry gets its own message
// because the client's correct reaction differs (re-login vs. drop token);
// everything else collapses into one.
const (
	refreshTokenExpiredMessage = "refresh token expired"
	refreshTokenInvalidMessage = "invalid or expired refresh token"
)

// Service orchestrates login, refresh, logout and password rotation. A
// refresh token it has issued is in exactly one of six terminal states from
// the server's perspective: valid, expired, signature-invalid, blacklisted,
// version-mismatched, or owned by an inactive user. None of them can be
// repaired; the client re-authenticates.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	InvalidateAllSessions(ctx context.Context, userID int64) error
	ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error
	GetCurrentUser(ctx context.Context, userID int64) (*users.UserDTO, error)
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	VerifyAccess(ctx context.Context, userID int64, tokenVersion int) error
}

type service struct {
	users       userRepository
	blacklist   revocationStore
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.User, error)
	FindByID(ctx context.Context, id int64, includeDeleted bool) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

type revocationStore interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	Save(ctx context.Context, entry *models.BlacklistedToken) error
}

// ServiceParams bundles the dependencies required to build a session service.
type ServiceParams struct {
	UserRepo       userRepository
	Blacklist      revocationStore
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

// NewService constructs a session service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Blacklist == nil {
		return nil, fmt.Errorf("blacklist repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:       params.UserRepo,
		blacklist:   params.Blacklist,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         now,
	}, nil
}

// Login validates the credentials and mints both tokens. Nothing is stored
// server-side; the pair is a pure function of the user's current token
// version.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         users.FromModel(user),
	}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a fresh access
// token. The refresh token itself is returned unchanged: there is no
// rotation, so two concurrent refreshes with the same token both succeed.
func (s *service) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := pkgAuth.ParseRefreshToken(s.jwtCfg, refreshToken)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrTokenExpired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, refreshTokenExpiredMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, refreshTokenInvalidMessage)
	}

	// Explicit revocation wins even while signature, expiry and version are
	// all still good, so this check runs before anything else.
	revoked, err := s.blacklist.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check blacklist")
	}
	if revoked {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, refreshTokenInvalidMessage)
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, refreshTokenInvalidMessage)
	}

	user, err := s.users.FindByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, refreshTokenInvalidMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, refreshTokenInvalidMessage)
	}
	if user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, refreshTokenInvalidMessage)
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), payloadFor(user))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes exactly one device's refresh token. The token is decoded
// without verification on purpose: a client logging out with an expired or
// tampered token still deserves to succeed, and the blacklist row is harmless
// since it prunes itself once past the token's own expiry.
func (s *service) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "refresh token is required")
	}

	claims, err := pkgAuth.DecodeUnverified(refreshToken)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "could not process refresh token")
	}

	expiresAt, err := claims.Expiry()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "could not process refresh token")
	}

	entry := &models.BlacklistedToken{
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.blacklist.Save(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "blacklist refresh token")
	}
	return nil
}

// InvalidateAllSessions bumps the user's token version by one, instantly
// orphaning every outstanding token without enumerating them.
func (s *service) InvalidateAllSessions(ctx context.Context, userID int64) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	user.TokenVersion++
	if err := s.users.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bump token version")
	}
	return nil
}

// ChangePassword rotates the credential and bumps the token version in the
// same row update, forcing re-authentication everywhere.
func (s *service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user.PasswordHash = hash
	user.TokenVersion++
	if err := s.users.Save(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist password change")
	}
	return nil
}

// GetCurrentUser loads the principal and rejects anything but an active
// account. Doubles as the post-refresh re-validation.
func (s *service) GetCurrentUser(ctx context.Context, userID int64) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is not active")
	}
	return users.FromModel(user), nil
}

// ValidateCredentials authenticates an email/password pair. Every failure
// surfaces the same generic error; the wrapped cause keeps the real reason
// visible in logs without leaking which accounts exist.
func (s *service) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(input), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidCredentials, err, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	return user, nil
}

// VerifyAccess is the request guard behind the bearer middleware. A token
// whose signature and expiry already passed can still be orphaned by a
// version bump or a deactivated account; both are checked here on every
// request.
func (s *service) VerifyAccess(ctx context.Context, userID int64, tokenVersion int) error {
	user, err := s.users.FindByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if tokenVersion != user.TokenVersion {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	if user.Status != enums.UserStatusActive {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

func (s *service) mintPair(user *models.User) (*TokenPair, error) {
	now := s.now()
	payload := payloadFor(user)

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refreshToken, err := pkgAuth.MintRefreshToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func payloadFor(user *models.User) pkgAuth.TokenPayload {
	return pkgAuth.TokenPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Roles:        user.RoleNames(),
		TokenVersion: user.TokenVersion,
	}
}
