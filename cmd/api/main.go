package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/accounts"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/admin"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/analytics"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/batch"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/config"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/diapers"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/feedings"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/mail"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/naps"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/notifications"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/router"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/scheduler"
	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/tracking"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error creating pgx pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("error pinging database: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(router.CorsMiddleware())
	app.Use(requestLogger())

	jwtSecret := []byte(cfg.JWTSecret)
	authMW := auth.Middleware(jwtSecret, pool)

	caches := children.NewCaches()
	analyticsCache := analytics.NewCache()

	notifSvc := notifications.NewService(pool)
	notifSvc.Start(ctx)

	events := &tracking.Events{
		Pool:      pool,
		Caches:    caches,
		Analytics: analyticsCache,
		Notifier:  notifSvc,
	}

	accountRepo := accounts.NewRepository(pool)
	accountHandler := accounts.NewHandler(accountRepo, jwtSecret)

	childRepo := children.NewRepository(pool, caches)
	childHandler := children.NewHandler(childRepo)
	mailer := mail.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	sharingHandler := children.NewSharingHandler(childRepo, mailer, cfg.BaseURL)

	feedingRepo := feedings.NewRepository(pool)
	diaperRepo := diapers.NewRepository(pool)
	napRepo := naps.NewRepository(pool)

	analyticsSvc := analytics.NewService(pool, analyticsCache)
	exporter := analytics.NewExporter(pool, analyticsSvc, cfg.ExportDir, cfg.BaseURL)
	exporter.Start(ctx)

	r := &router.Router{
		Accounts:      accountHandler,
		Children:      childHandler,
		Sharing:       sharingHandler,
		Feedings:      feedings.NewHandler(feedingRepo, childHandler, events),
		Diapers:       diapers.NewHandler(diaperRepo, childHandler, events),
		Naps:          naps.NewHandler(napRepo, childHandler, events),
		Batch:         batch.NewHandler(childHandler, feedingRepo, diaperRepo, napRepo, events),
		Analytics:     analytics.NewHandler(analyticsSvc, childHandler, exporter),
		Notifications: notifications.NewHandler(notifSvc),
		Admin:         admin.NewHandler(pool),
		AuthMW:        authMW,
		AdminMW:       admin.RequireAdminKey(cfg.AdminKey),
	}
	r.RegisterRoutes(app)

	cronRunner := (&scheduler.Service{Notifications: notifSvc}).Start()
	defer cronRunner.Stop()

	log.Println("Listening on port", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		log.Printf("%s %s %d %s", c.Method(), c.Path(), status, time.Since(start))
		return err
	}
}
