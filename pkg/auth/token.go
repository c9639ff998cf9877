package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/poiquest/poiquest-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrTokenExpired reports a structurally valid token past its exp claim.
// Callers surface it differently from ErrTokenInvalid, so the two are never
// conflated here.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid reports a token whose signature, structure or claims are
// unusable.
var ErrTokenInvalid = errors.New("token invalid")

// MintAccessToken issues a short-lived JWT signed with the access secret.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	if cfg.AccessSecret == "" {
		return "", fmt.Errorf("jwt access secret is required")
	}
	if cfg.AccessTTLMinutes <= 0 {
		return "", fmt.Errorf("jwt access ttl minutes must be positive")
	}
	return mint(cfg.AccessSecret, cfg.Issuer, cfg.AccessTTL(), now, payload)
}

// MintRefreshToken issues a long-lived JWT signed with the refresh secret.
// A leaked access secret therefore cannot be used to mint refresh tokens.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	if cfg.RefreshSecret == "" {
		return "", fmt.Errorf("jwt refresh secret is required")
	}
	if cfg.RefreshTTLMinutes <= 0 {
		return "", fmt.Errorf("jwt refresh ttl minutes must be positive")
	}
	return mint(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTTL(), now, payload)
}

func mint(secret, issuer string, ttl time.Duration, now time.Time, payload TokenPayload) (string, error) {
	if issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if payload.UserID <= 0 {
		return "", fmt.Errorf("payload user id must be positive")
	}

	claims := TokenClaims{
		Email:        payload.Email,
		Roles:        payload.Roles,
		TokenVersion: payload.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(payload.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates an access token string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("jwt access secret is required")
	}
	return parse(cfg.AccessSecret, cfg.Issuer, tokenString)
}

// ParseRefreshToken validates a refresh token string and returns typed
// claims. Expiry and signature failures stay distinguishable through the
// returned sentinel.
func ParseRefreshToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt refresh secret is required")
	}
	return parse(cfg.RefreshSecret, cfg.Issuer, tokenString)
}

func parse(secret, issuer, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return claims, nil
}

// DecodeUnverified extracts claims without checking the signature. Used only
// on tokens that were already verified, or on tokens being revoked, where the
// expiry is read so the blacklist row can prune itself naturally.
func DecodeUnverified(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}
