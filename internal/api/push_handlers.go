package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/logger"
	"wordreminder/internal/models"
)

// CreateFCMTokenHandler registers a device token for native push.
func CreateFCMTokenHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateFCMTokenRequest
		if err := c.BodyParser(&req); err != nil {
			return invalid("token", "Token must be a string")
		}
		token := strings.TrimSpace(req.Token)
		if token == "" {
			return invalid("token", "Token must not be empty")
		}

		if _, err := env.Store.Tokens.Create(c.UserContext(), userID, token); err != nil {
			return err
		}
		logger.Info("fcm token registered", "user_id", userID)

		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}

func DeleteFCMTokenHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateFCMTokenRequest
		if err := c.BodyParser(&req); err != nil {
			return invalid("token", "Token must be a string")
		}
		token := strings.TrimSpace(req.Token)
		if token == "" {
			return invalid("token", "Token must not be empty")
		}

		if err := env.Store.Tokens.Delete(c.UserContext(), userID, token); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}

func SubscribePushHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.SubscriptionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		verr := &ValidationError{}
		if req.Endpoint == "" {
			verr.Add("endpoint", "Endpoint is required")
		}
		if req.Keys.P256dh == "" {
			verr.Add("keys.p256dh", "Key is required")
		}
		if req.Keys.Auth == "" {
			verr.Add("keys.auth", "Key is required")
		}
		if err := verr.orNil(); err != nil {
			return err
		}

		err := env.Store.Subscriptions.Upsert(c.UserContext(), models.PushSubscription{
			UserID:   userID,
			Endpoint: req.Endpoint,
			P256dh:   req.Keys.P256dh,
			Auth:     req.Keys.Auth,
		})
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}

func UnsubscribePushHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var body struct {
			Endpoint string `json:"endpoint"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Endpoint == "" {
			return invalid("endpoint", "Endpoint is required")
		}

		if err := env.Store.Subscriptions.Delete(c.UserContext(), userID, body.Endpoint); err != nil {
			return err
		}

		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}

// VapidPublicKeyHandler returns the VAPID public key browsers subscribe with.
func VapidPublicKeyHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !env.Config.Push.WebPushConfigured() {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Web push is not configured")
		}
		return c.JSON(fiber.Map{"publicKey": env.Config.Push.VAPIDPublicKey})
	}
}
