package api

import (
	"github.com/gofiber/fiber/v2"
)

// GetUserProfileHandler returns the current user's profile information
func GetUserProfileHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		user, err := env.Store.Users.ByID(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": user})
	}
}

// OnloadHandler starts a client session. The response carries at most one
// consolidated notification for reminders that fired while the user was away.
func OnloadHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		n, err := env.Scheduler.OnLoad(c.UserContext(), userID, env.now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"notification": n}})
	}
}
