package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/adill-v/HireLinkBack/pkg/utils"
)

// AuthRequired verifies the bearer token and exposes the verified subject as
// the "user_id" local. The message endpoints rely on this identity for the
// sender; everything else about the caller stays the identity service's
// concern.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, found := strings.CutPrefix(c.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "bearer token required",
			})
		}

		claims, err := utils.ValidateToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
