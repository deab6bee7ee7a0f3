package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// UserContext contains authenticated user information
type UserContext struct {
	UserID  string
	Email   string
	Name    string
	StoreID string
	TokenID string
}

// contextKey is the key for storing user info in context
type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// SetUserInContext stores the authenticated user in the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromClaims builds the request user from validated access token claims
func UserFromClaims(c *Claims) *UserContext {
	return &UserContext{
		UserID:  c.UserID,
		Email:   c.Email,
		Name:    c.Name,
		StoreID: c.StoreID,
		TokenID: c.ID,
	}
}

// CanModifyPost checks if the user may edit or delete a post by authorID
func CanModifyPost(ctx context.Context, authorID string) error {
	user, err := GetUserFromContext(ctx)
	if err != nil {
		return err
	}
	if user.UserID != authorID {
		return ErrForbidden
	}
	return nil
}
