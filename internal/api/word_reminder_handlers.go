package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/models"
	"wordreminder/internal/schedule"
)

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func validateCadence(verr *ValidationError, expr string) {
	if expr == "" {
		verr.Add("reminder", "Reminder is required")
		return
	}
	if _, err := schedule.ParseCadence(expr); err != nil {
		verr.Add("reminder", err.Error())
	}
}

func validateFinish(verr *ValidationError, finish *time.Time, now time.Time) {
	if finish == nil {
		verr.Add("finish", "Finish is required")
		return
	}
	if !finish.After(now) {
		verr.Add("finish", "Finish must be in the future")
	}
}

// CreateWordReminderHandler creates a manual reminder, or an auto word
// reminder config when the body has auto set.
func CreateWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		var req models.CreateWordReminderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		now := env.now()

		if req.Auto {
			cfg, wr, err := createAuto(c, env, userID, autoInput{
				Reminder:          req.Reminder.Expression,
				Duration:          req.Duration,
				WordCount:         req.WordCount,
				CreateNow:         boolOr(req.CreateNow, false),
				IsActive:          boolOr(req.IsActive, true),
				HasReminderOnload: boolOr(req.HasReminderOnload, false),
				HasLearnedWords:   boolOr(req.HasLearnedWords, false),
				Order:             req.Order,
				orderField:        "order",
			}, now)
			if err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
				"auto_word_reminder": cfg,
				"word_reminder":      wr,
			}})
		}

		verr := &ValidationError{}
		validateCadence(verr, req.Reminder.Expression)
		validateFinish(verr, req.Finish, now)
		if len(req.UserWords) == 0 {
			verr.Add("user_words", "At least one word is required")
		}
		if err := verr.orNil(); err != nil {
			return err
		}

		startsAt, err := schedule.StartsAt(req.Reminder.Expression, boolOr(req.CreateNow, false), now)
		if err != nil {
			return err
		}
		wr, err := env.Store.WordReminders.Create(c.UserContext(), models.WordReminder{
			UserID:            userID,
			Reminder:          req.Reminder.Expression,
			Finish:            req.Finish.UTC(),
			IsActive:          boolOr(req.IsActive, true),
			HasReminderOnload: boolOr(req.HasReminderOnload, false),
			StartsAt:          startsAt,
		}, req.UserWords)
		if err != nil {
			return err
		}
		wr.State = string(schedule.StateOf(wr, now))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": wr})
	}
}

func ListWordRemindersHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		reminders, err := env.Store.WordReminders.List(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": schedule.WithState(reminders, env.now())})
	}
}

func GetWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "wordReminderId")
		if err != nil {
			return err
		}

		wr, err := env.Store.WordReminders.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		wr.State = string(schedule.StateOf(wr, env.now()))
		return c.JSON(fiber.Map{"data": wr})
	}
}

// UpdateWordReminderHandler changes cadence, flags, finish or the word set.
// Omitted fields keep their value. A new cadence restarts the reminder at
// its next boundary.
func UpdateWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "wordReminderId")
		if err != nil {
			return err
		}

		var req models.UpdateWordReminderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		ctx := c.UserContext()
		now := env.now()
		wr, err := env.Store.WordReminders.Get(ctx, userID, id)
		if err != nil {
			return err
		}

		verr := &ValidationError{}
		if req.Reminder.Expression != "" {
			validateCadence(verr, req.Reminder.Expression)
		}
		if req.Finish != nil {
			validateFinish(verr, req.Finish, now)
		}
		if req.UserWords != nil && len(req.UserWords) == 0 {
			verr.Add("user_words", "At least one word is required")
		}
		if err := verr.orNil(); err != nil {
			return err
		}

		if req.Reminder.Expression != "" && req.Reminder.Expression != wr.Reminder {
			startsAt, err := schedule.StartsAt(req.Reminder.Expression, false, now)
			if err != nil {
				return err
			}
			wr.Reminder = req.Reminder.Expression
			wr.StartsAt = startsAt
		}
		if req.Finish != nil {
			wr.Finish = req.Finish.UTC()
		}
		wr.IsActive = boolOr(req.IsActive, wr.IsActive)
		wr.HasReminderOnload = boolOr(req.HasReminderOnload, wr.HasReminderOnload)

		updated, err := env.Store.WordReminders.Update(ctx, wr, req.UserWords)
		if err != nil {
			return err
		}
		updated.State = string(schedule.StateOf(updated, now))
		return c.JSON(fiber.Map{"data": updated})
	}
}

func DeleteWordReminderHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)
		id, err := paramID(c, "wordReminderId")
		if err != nil {
			return err
		}

		if err := env.Store.WordReminders.Delete(c.UserContext(), userID, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"success": true}})
	}
}

func DeleteAllWordRemindersHandler(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(int)

		n, err := env.Store.WordReminders.DeleteAll(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"deleted": n}})
	}
}
