package auth

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"

	"companydocs/internal/apperr"
)

// JWTVerifier validates HS256 access tokens signed with the provider's shared
// secret. The user ID is the "sub" claim; "email" is optional.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier fails when secret is empty.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Unauthorized("missing bearer token")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Identity{}, apperr.Unauthorized("invalid or expired token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, apperr.Unauthorized("token has no subject")
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: sub, Email: email}, nil
}
