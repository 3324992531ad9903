// Package auth verifies bearer tokens issued by the hosted identity provider.
package auth

import (
	"context"

	"github.com/cockroachdb/errors"

	"companydocs/internal/config"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenVerifier turns a bearer token into an Identity. An empty token must be
// rejected unless the verifier is Anonymous.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// New selects the verifier named by cfg.Provider.
func New(cfg config.AuthConfig) (TokenVerifier, error) {
	switch cfg.Provider {
	case "", "jwt":
		return NewJWTVerifier(cfg.JWTSecret)
	case "supabase":
		return NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseKey)
	case "none":
		return Anonymous{}, nil
	default:
		return nil, errors.Newf("unsupported auth provider %q", cfg.Provider)
	}
}

// DevIdentity is returned by Anonymous for every request.
var DevIdentity = Identity{UserID: "00000000-0000-0000-0000-000000000000", Email: "dev@localhost"}

// Anonymous accepts any token. Local development only.
type Anonymous struct{}

func (Anonymous) Verify(context.Context, string) (Identity, error) {
	return DevIdentity, nil
}
