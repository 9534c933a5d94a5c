package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"registration-service/pkg/jwtutil"
	"registration-service/pkg/response"
	"registration-service/pkg/xerrors"
)

// AuthMiddleware gates routes on a verified token and, where required, the
// admin role claim. Expired, invalid and wrong-role tokens are distinct
// failures; the caller-visible status is 401 for all of them, with distinct
// messages.
type AuthMiddleware struct {
	tokens *jwtutil.Manager
	logger *zap.Logger
}

func NewAuthMiddleware(tokens *jwtutil.Manager, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// RequireUser admits tokens carrying the user role.
func (am *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return am.require(jwtutil.RoleUser, next)
}

// RequireAdmin admits tokens carrying the admin role only.
func (am *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return am.require(jwtutil.RoleAdmin, next)
}

func (am *AuthMiddleware) require(want jwtutil.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := extractToken(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, role, err := am.tokens.Verify(tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, xerrors.ErrTokenExpired):
				response.Error(w, http.StatusUnauthorized, "token expired")
			default:
				response.Error(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		// Exhaustive over the closed role set; anything else was already
		// rejected by Verify.
		switch role {
		case want:
		case jwtutil.RoleUser, jwtutil.RoleAdmin:
			am.logger.Info("role not allowed for route",
				zap.String("have", string(role)),
				zap.String("want", string(want)))
			response.Error(w, http.StatusUnauthorized, "wrong role for this resource")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, ContextAccountID, claims.Subject)
		ctx = context.WithValue(ctx, ContextEmail, claims.Email)
		ctx = context.WithValue(ctx, ContextRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken prefers the Authorization header and falls back to the
// session cookie the admin dashboard sets.
func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, found := strings.CutPrefix(h, "Bearer "); found && token != "" {
			return token, true
		}
		return "", false
	}
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}
