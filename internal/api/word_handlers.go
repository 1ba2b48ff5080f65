package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/models"
)

func CreateUserWordHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateUserWordRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(req.Word) == "" {
			return invalid("word", "Word must not be empty")
		}

		uw, err := env.Store.UserWords.Create(c.UserContext(), userID, req.Word)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": uw})
	}
}

func ListUserWordsHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		words, err := env.Store.UserWords.List(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": words})
	}
}

func GetUserWordHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "userWordId")
		if err != nil {
			return err
		}

		uw, err := env.Store.UserWords.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": uw})
	}
}

// UpdateUserWordHandler toggles the learned flag.
func UpdateUserWordHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "userWordId")
		if err != nil {
			return err
		}

		var req models.UpdateUserWordRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if req.Learned == nil {
			return invalid("learned", "Learned is required")
		}

		uw, err := env.Store.UserWords.SetLearned(c.UserContext(), userID, id, *req.Learned)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": uw})
	}
}

func DeleteUserWordHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "userWordId")
		if err != nil {
			return err
		}

		if err := env.Store.UserWords.Delete(c.UserContext(), userID, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}
