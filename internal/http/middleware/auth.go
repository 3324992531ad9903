package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"companydocs/internal/auth"
)

// IdentityLocalKey is the key under which Auth stores the caller's auth.Identity.
const IdentityLocalKey = "identity"

// Auth verifies the bearer token of every request. Failures are returned to the
// app error handler, which renders the standard error envelope.
func Auth(v auth.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := v.Verify(c.UserContext(), bearerToken(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			return err
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(auth.Identity)
	return id, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
