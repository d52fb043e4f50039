package main

import (
	"context"
	"time"

	"crmportal/config"
	controller "crmportal/controllers"
	"crmportal/middleware"
	"crmportal/models"
	"crmportal/routes"
	"crmportal/session"
	"crmportal/views"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logrus.Warnf("Sentry disabled: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	created, err := models.CreateDefaultAdmin(config.DB, models.AdminSeed{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		logrus.Fatalf("Failed to seed admin account: %v", err)
	}
	if created {
		logrus.Warnf("Created default admin account %q. Change its password after the first login.", cfg.Admin.Username)
	}

	// Sessions and login counters live in Redis when enabled, in memory otherwise
	var storage fiber.Storage
	if cfg.Redis.Enabled {
		redisStorage := middleware.NewRedisStorage(cfg.Redis, "crm:")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisStorage.Ping(ctx)
		cancel()
		if err != nil {
			logrus.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStorage.Close()
		storage = redisStorage
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        views.NewEngine(),
		ErrorHandler: controller.ErrorHandler,
	})
	app.Use(recover.New())

	routes.SetupRoutes(app, config.DB, routes.Options{
		Sessions: session.NewStore(session.Config{
			Lifetime: cfg.SessionLifetime,
			Secure:   cfg.IsProduction(),
			Storage:  storage,
		}),
		Storage:        storage,
		CSRFSecret:     []byte(cfg.SessionSecret),
		CSRFLifetime:   cfg.SessionLifetime,
		PerPage:        cfg.RecordsPerPage,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	// Start server
	logrus.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
