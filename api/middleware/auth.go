package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/poiquest/poiquest-backend/api/responses"
	pkgAuth "github.com/poiquest/poiquest-backend/pkg/auth"
	"github.com/poiquest/poiquest-backend/pkg/config"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

// accessGuard re-validates a structurally valid token against server state:
// a bumped token version or a deactivated account orphans the token even
// before it expires.
type accessGuard interface {
	VerifyAccess(ctx context.Context, userID int64, tokenVersion int) error
}

// Auth validates a bearer token and seeds the request context with the
// authenticated principal.
func Auth(cfg config.JWTConfig, guard accessGuard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, err := claims.SubjectID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if guard != nil {
				if err := guard.VerifyAccess(r.Context(), userID, claims.TokenVersion); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := WithPrincipal(r.Context(), userID, claims.Email, claims.Roles)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": userID,
					"roles":   strings.Join(claims.Roles, ","),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
