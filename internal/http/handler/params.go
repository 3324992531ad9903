package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"companydocs/internal/auth"
	"companydocs/internal/http/middleware"
)

// uuidParam returns the named path parameter when it is a UUID.
func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

// intQuery parses an optional integer query parameter; a missing one yields 0.
func intQuery(c *fiber.Ctx, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func identity(c *fiber.Ctx) auth.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
