package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/logger"
	"wordreminder/internal/models"
	"wordreminder/internal/selection"
	"wordreminder/internal/store"
)

// autoInput is an auto word reminder request with defaults applied.
type autoInput struct {
	Reminder          string
	Duration          *models.DurationInput
	WordCount         int
	CreateNow         bool
	IsActive          bool
	HasReminderOnload bool
	HasLearnedWords   bool
	Order             models.SortMode

	orderField string
}

func fromAutoRequest(req models.AutoWordReminderRequest) autoInput {
	return autoInput{
		Reminder:          req.Reminder.Expression,
		Duration:          req.Duration,
		WordCount:         req.WordCount,
		CreateNow:         boolOr(req.CreateNow, false),
		IsActive:          boolOr(req.IsActive, true),
		HasReminderOnload: boolOr(req.HasReminderOnload, false),
		HasLearnedWords:   boolOr(req.HasLearnedWords, false),
		Order:             req.SortMode,
		orderField:        "sort_mode",
	}
}

// config validates in and builds the persisted form. next_run_at is one
// duration past now.
func (in autoInput) config(userID int, now time.Time) (models.AutoWordReminder, error) {
	verr := &ValidationError{}
	validateCadence(verr, in.Reminder)
	if in.Duration == nil || in.Duration.Ms <= 0 {
		verr.Add("duration", "Duration must be positive")
	}
	if in.WordCount < 1 || in.WordCount > selection.MaxWordCount {
		verr.Add("word_count", "Word count must be between 1 and 99")
	}
	order := in.Order
	if order == "" {
		order = models.SortNewest
	}
	if !order.Valid() {
		verr.Add(in.orderField, "Order must be newest, oldest or random")
	}
	if err := verr.orNil(); err != nil {
		return models.AutoWordReminder{}, err
	}

	next := now.Add(time.Duration(in.Duration.Ms) * time.Millisecond)
	return models.AutoWordReminder{
		UserID:            userID,
		Reminder:          in.Reminder,
		DurationMs:        in.Duration.Ms,
		WordCount:         in.WordCount,
		IsActive:          in.IsActive,
		HasReminderOnload: in.HasReminderOnload,
		HasLearnedWords:   in.HasLearnedWords,
		SortMode:          order,
		NextRunAt:         &next,
	}, nil
}

// generateNow creates the first reminder of cfg when asked to.
func generateNow(ctx context.Context, env *Env, cfg models.AutoWordReminder, now time.Time) (*models.WordReminder, error) {
	wr, err := env.Scheduler.Generate(ctx, cfg, now)
	if err != nil {
		return nil, err
	}
	logger.Info("auto word reminder generated", "user_id", cfg.UserID, "word_reminder_id", wr.ID)
	return &wr, nil
}

func createAuto(c *fiber.Ctx, env *Env, userID int, in autoInput, now time.Time) (models.AutoWordReminder, *models.WordReminder, error) {
	cfg, err := in.config(userID, now)
	if err != nil {
		return models.AutoWordReminder{}, nil, err
	}

	ctx := c.UserContext()
	cfg, err = env.Store.AutoReminders.Create(ctx, cfg)
	if errors.Is(err, store.ErrConflict) {
		return models.AutoWordReminder{}, nil, fiber.NewError(fiber.StatusConflict, "Auto word reminder already exists")
	}
	if err != nil {
		return models.AutoWordReminder{}, nil, err
	}
	if !in.CreateNow {
		return cfg, nil, nil
	}

	wr, err := generateNow(ctx, env, cfg, now)
	if err != nil {
		// Keep create atomic from the caller's view.
		if delErr := env.Store.AutoReminders.Delete(ctx, userID, cfg.ID); delErr != nil {
			logger.Error("failed to roll back auto word reminder", "auto_word_reminder_id", cfg.ID, "error", delErr)
		}
		return models.AutoWordReminder{}, nil, err
	}
	return cfg, wr, nil
}

func CreateAutoWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.AutoWordReminderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		cfg, wr, err := createAuto(c, env, userID, fromAutoRequest(req), env.now())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
			"auto_word_reminder": cfg,
			"word_reminder":      wr,
		}})
	}
}

func GetAutoWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		cfg, err := env.Store.AutoReminders.GetByUser(c.UserContext(), userID)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(fiber.Map{"data": nil})
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": cfg})
	}
}

// UpdateAutoWordReminderHandler replaces the config. The schedule restarts
// from now.
func UpdateAutoWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "autoWordReminderId")
		if err != nil {
			return err
		}

		var req models.AutoWordReminderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		ctx := c.UserContext()
		now := env.now()
		if _, err := env.Store.AutoReminders.Get(ctx, userID, id); err != nil {
			return err
		}

		in := fromAutoRequest(req)
		cfg, err := in.config(userID, now)
		if err != nil {
			return err
		}
		cfg.ID = id
		cfg, err = env.Store.AutoReminders.Update(ctx, cfg)
		if err != nil {
			return err
		}

		var wr *models.WordReminder
		if in.CreateNow {
			if wr, err = generateNow(ctx, env, cfg, now); err != nil {
				return err
			}
		}
		return c.JSON(fiber.Map{"data": fiber.Map{
			"auto_word_reminder": cfg,
			"word_reminder":      wr,
		}})
	}
}

func DeleteAutoWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "autoWordReminderId")
		if err != nil {
			return err
		}

		if err := env.Store.AutoReminders.Delete(c.UserContext(), userID, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}
