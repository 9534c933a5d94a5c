package middleware

import (
	"context"

	"registration-service/pkg/jwtutil"
)

type contextKey string

const (
	ContextAccountID contextKey = "account_id"
	ContextEmail     contextKey = "email"
	ContextRole      contextKey = "role"
)

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextAccountID).(string)
	return id, ok && id != ""
}

// EmailFromContext returns the authenticated email, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ContextEmail).(string)
	return email, ok && email != ""
}

// RoleFromContext returns the authenticated role, if any.
func RoleFromContext(ctx context.Context) (jwtutil.Role, bool) {
	role, ok := ctx.Value(ContextRole).(jwtutil.Role)
	return role, ok
}
