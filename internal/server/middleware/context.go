package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/apexhq/trackline/internal/access"
)

type contextKey string

const (
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
)

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

// IdentityFromContext assembles the access.Identity the handlers check
// against. Returns false when the auth middleware did not run.
func IdentityFromContext(ctx context.Context) (access.Identity, bool) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return access.Identity{}, false
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return access.Identity{}, false
	}
	return access.Identity{UserID: userID, Role: role}, true
}
