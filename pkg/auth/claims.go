package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPayload captures the data available when minting a JWT. Access and
// refresh tokens share this shape and differ only in secret and TTL.
type TokenPayload struct {
	UserID       int64
	Email        string
	Roles        []string
	TokenVersion int
}

// TokenClaims represents the typed JWT issued to clients.
type TokenClaims struct {
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	TokenVersion int      `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// SubjectID returns the numeric user id carried in the sub claim.
func (c *TokenClaims) SubjectID() (int64, error) {
	if c == nil || c.Subject == "" {
		return 0, ErrTokenInvalid
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// Expiry returns the exp claim as a wall-clock time.
func (c *TokenClaims) Expiry() (time.Time, error) {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return c.ExpiresAt.Time, nil
}
