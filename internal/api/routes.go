package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wordreminder/internal/config"
	"wordreminder/internal/schedule"
	"wordreminder/internal/store"
)

// Env carries what the handlers need.
type Env struct {
	Store     *store.Store
	Scheduler *schedule.Scheduler
	Config    *config.Config
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func SetupRoutes(app *fiber.App, env *Env) {
	api := app.Group("/api")

	disableRegistration := env.Config.DisableRegistration

	// Configuration endpoint (public)
	api.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"disableRegistration": disableRegistration,
			"webPush":             env.Config.Push.WebPushConfigured(),
		})
	})

	// Auth routes
	authGroup := api.Group("/auth")
	if !disableRegistration {
		authGroup.Post("/register", RegisterHandler(env))
	}
	authGroup.Post("/login", LoginHandler(env))
	authGroup.Post("/refresh", RefreshTokenHandler(env))
	authGroup.Post("/logout", LogoutHandler(env))

	// Public; registered before the protected group.
	api.Get("/push/vapid-public-key", VapidPublicKeyHandler(env))

	users := api.Group("/users/:userId", AuthMiddleware(), RequireSameUser())
	users.Get("/", GetUserProfileHandler(env))
	users.Post("/sessions/onload", OnloadHandler(env))

	users.Post("/fcmTokens", CreateFCMTokenHandler(env))
	users.Delete("/fcmTokens", DeleteFCMTokenHandler(env))

	users.Post("/subscriptions", SubscribePushHandler(env))
	users.Delete("/subscriptions", UnsubscribePushHandler(env))

	users.Post("/userWords", CreateUserWordHandler(env))
	users.Get("/userWords", ListUserWordsHandler(env))
	users.Get("/userWords/:userWordId", GetUserWordHandler(env))
	users.Put("/userWords/:userWordId", UpdateUserWordHandler(env))
	users.Delete("/userWords/:userWordId", DeleteUserWordHandler(env))

	users.Post("/wordReminders", CreateWordReminderHandler(env))
	users.Get("/wordReminders", ListWordRemindersHandler(env))
	users.Delete("/wordReminders", DeleteAllWordRemindersHandler(env))
	users.Get("/wordReminders/:wordReminderId", GetWordReminderHandler(env))
	users.Put("/wordReminders/:wordReminderId", UpdateWordReminderHandler(env))
	users.Delete("/wordReminders/:wordReminderId", DeleteWordReminderHandler(env))

	users.Post("/autoWordReminders", CreateAutoWordReminderHandler(env))
	users.Get("/autoWordReminders", GetAutoWordReminderHandler(env))
	users.Put("/autoWordReminders/:autoWordReminderId", UpdateAutoWordReminderHandler(env))
	users.Delete("/autoWordReminders/:autoWordReminderId", DeleteAutoWordReminderHandler(env))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
