package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// UserIDFromContext returns the authenticated user's id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// RoleFromContext returns the role resolved for this request. Defaults to
// Customer when the resolution middleware did not run.
func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return enums.RoleCustomer
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return enums.RoleCustomer
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the resolved role into the context.
func WithRole(ctx context.Context, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}
