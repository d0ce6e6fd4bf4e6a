package domain

import (
	"context"

	"github.com/supabase-community/supabase-go"
)

// SupabaseUser represents a user from Supabase Auth
type SupabaseUser struct {
	ID           string
	Email        string
	UserMetadata map[string]interface{}
	CreatedAt    string
	UpdatedAt    string
}

type SupabaseClient interface {
	Initialize() error
	ValidateToken(token string) (*SupabaseUser, error)
	// GetClientWithToken returns a client whose requests run as the token's user.
	GetClientWithToken(token string) (*supabase.Client, error)

	DB() *supabase.Client
}

type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}

type tokenKey struct{}

// ContextWithToken attaches the caller's access token for repositories that
// act on the user's behalf.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the access token set by ContextWithToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
