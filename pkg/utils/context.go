package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// CurrentUser is the authenticated caller attached by the auth middleware.
type CurrentUser struct {
	ID   uuid.UUID
	Role string
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userIDVal := ctx.Value(UserIDKey)
	if userIDVal == nil {
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}

	return userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	roleVal := ctx.Value(RoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(string)
	return role, ok
}

func SetUserContext(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}

// GetCurrentUser returns the caller, false when the request is anonymous.
func GetCurrentUser(ctx context.Context) (CurrentUser, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return CurrentUser{}, false
	}
	role, _ := GetRoleFromContext(ctx)
	return CurrentUser{ID: userID, Role: role}, true
}
