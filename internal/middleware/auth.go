package middleware

import (
	"coinvest-backend/internal/domain"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 otherwise.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals(userLocal) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// RequireAdmin additionally checks the session user's role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(userLocal).(map[string]interface{})
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if role, _ := user["role"].(string); role != domain.RoleAdmin {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}

// CurrentUserID extracts the authenticated user's id from the session. The
// settlement layer trusts this identity.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	user, ok := c.Locals(userLocal).(map[string]interface{})
	if !ok {
		return uuid.Nil, false
	}
	raw, _ := user["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
