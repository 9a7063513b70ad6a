package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/httpx"
	userentity "github.com/ovaphlow/cellgroup/internal/user/entity"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// WithClaims returns ctx carrying c. Intended for tests.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate rejects requests without a valid bearer token: 401 when
// absent, 403 when invalid or expired.
func Authenticate(svc *Service, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(w, r, logger, ErrMissingToken)
				return
			}
			claims, err := svc.Parse(token)
			if err != nil {
				httpx.WriteError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole admits only the listed roles. It must run after Authenticate.
func RequireRole(logger *zap.SugaredLogger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				httpx.WriteError(w, r, logger, ErrMissingToken)
				return
			}
			if !allowed[claims.Role] {
				httpx.WriteError(w, r, logger, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits admins only.
func RequireAdmin(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return RequireRole(logger, userentity.RoleAdmin)
}

// RequireLeader admits leaders and admins.
func RequireLeader(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return RequireRole(logger, userentity.RoleLeader, userentity.RoleAdmin)
}
