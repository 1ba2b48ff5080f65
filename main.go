package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"wordreminder/internal/api"
	"wordreminder/internal/auth"
	"wordreminder/internal/config"
	"wordreminder/internal/database"
	"wordreminder/internal/dedupe"
	"wordreminder/internal/logger"
	"wordreminder/internal/push"
	"wordreminder/internal/queue"
	"wordreminder/internal/schedule"
	"wordreminder/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		logger.Warn("logger configuration incomplete", "error", err)
	}
	if err := auth.Init(cfg.Auth); err != nil {
		logger.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.DBPath, cfg.DBEncryptionKey)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations are opt-in.
	if cfg.RunMigrations {
		logger.Info("running database migrations")
		if err := database.Migrate(db); err != nil {
			logger.Error("migration failed", "error", err)
		}
	} else {
		logger.Debug("migrations skipped (set RUN_MIGRATIONS=true to enable)")
	}

	st := store.New(db)
	channel := pushChannel(ctx, cfg, st)
	deliver := func(ctx context.Context, ev push.Event) error {
		report, err := channel.Deliver(ctx, ev)
		if err != nil {
			logger.Error("push delivery lookup failed", "user_id", ev.UserID, "error", err)
			return err
		}
		logger.Info("push delivered", "user_id", ev.UserID,
			"attempted", report.Attempted, "delivered", report.Delivered, "failed", len(report.Failures))
		return nil
	}

	q, closeQueue := dispatchQueue(ctx, cfg, deliver)
	defer closeQueue()

	claims, closeClaims := firingClaims(ctx, cfg)
	defer closeClaims()

	scheduler := schedule.New(st, q, claims)
	if cfg.EnableWorkers {
		logger.Info("starting scheduler", "interval", cfg.SchedulerInterval)
		go scheduler.Run(ctx, cfg.SchedulerInterval)
	} else {
		logger.Info("background workers disabled (set ENABLE_WORKERS=true to enable)")
	}

	app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler})
	app.Use(fiberlogger.New())

	logger.Info("CORS allowed origins", "origins", cfg.AllowedOrigins)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))

	api.SetupRoutes(app, &api.Env{
		Store:     st,
		Scheduler: scheduler,
		Config:    cfg,
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
	}
}

// pushChannel combines native push and web push, whichever is configured.
func pushChannel(ctx context.Context, cfg *config.Config, st *store.Store) push.Channel {
	var channels push.Multi
	if cfg.Push.FirebaseCredentialsFile != "" {
		sender, err := push.NewFCMSender(ctx, cfg.Push.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("native push disabled", "error", err)
		} else {
			channels = append(channels, push.NewDispatcher(st.Tokens, sender))
		}
	}
	if cfg.Push.WebPushConfigured() {
		channels = append(channels, push.NewWebPush(st.Subscriptions, cfg.Push))
	}
	if len(channels) == 0 {
		logger.Warn("no push channel configured; fired reminders will only be logged")
	}
	return channels
}

// dispatchQueue uses RabbitMQ when configured and an in-process worker pool
// otherwise.
func dispatchQueue(ctx context.Context, cfg *config.Config, deliver queue.Handler) (queue.Queue, func()) {
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL)
		if err == nil {
			go func() {
				if err := amqpQueue.Consume(ctx, cfg.DispatchWorkers, deliver); err != nil {
					logger.Error("dispatch consumer stopped", "error", err)
				}
			}()
			logger.Info("dispatch queue", "backend", "amqp", "queue", queue.DispatchQueue)
			return amqpQueue, func() { amqpQueue.Close() }
		}
		logger.Error("falling back to in-process dispatch queue", "error", err)
	}

	local := queue.NewLocal(ctx, cfg.DispatchWorkers, 64, deliver)
	logger.Info("dispatch queue", "backend", "local", "workers", cfg.DispatchWorkers)
	return local, func() { local.Close() }
}

// firingClaims shares claims through Redis when configured so several
// instances never fire the same boundary twice.
func firingClaims(ctx context.Context, cfg *config.Config) (dedupe.Claimer, func()) {
	if cfg.RedisURL != "" {
		client, err := dedupe.DialRedis(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("firing claims", "backend", "redis")
			return dedupe.NewRedis(client), func() { client.Close() }
		}
		logger.Error("falling back to in-memory firing claims", "error", err)
	}
	return dedupe.NewMemory(), func() {}
}
