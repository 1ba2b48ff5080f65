package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/auth"
)

func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)

		return c.Next()
	}
}

// RequireSameUser rejects requests whose :userId is not the authenticated
// user. It must run after AuthMiddleware.
func RequireSameUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pathID, err := strconv.Atoi(c.Params("userId"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user ID")
		}
		if userID, ok := c.Locals("userID").(int); !ok || userID != pathID {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden")
		}
		return c.Next()
	}
}

func paramID(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}
