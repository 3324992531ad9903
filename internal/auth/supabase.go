package auth

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/nedpals/supabase-go"

	"companydocs/internal/apperr"
)

// SupabaseVerifier asks the hosted auth API who owns the token, so revoked
// sessions are rejected immediately.
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(url, serviceKey string) (*SupabaseVerifier, error) {
	if url == "" || serviceKey == "" {
		return nil, errors.New("supabase url and service key are required")
	}
	client := supabase.CreateClient(url, serviceKey)
	if client == nil {
		return nil, errors.New("create supabase client")
	}
	return &SupabaseVerifier{client: client}, nil
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("missing bearer token")
	}
	user, err := v.client.Auth.User(ctx, token)
	if err != nil || user == nil || user.ID == "" {
		return Identity{}, apperr.Unauthorized("invalid or expired token")
	}
	return Identity{UserID: user.ID, Email: user.Email}, nil
}
