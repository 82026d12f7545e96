package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/cache"
	"github.com/Odix-Pay/odixpay-notifications/internal/config"
	"github.com/Odix-Pay/odixpay-notifications/internal/handlers"
	"github.com/Odix-Pay/odixpay-notifications/internal/messaging"
	"github.com/Odix-Pay/odixpay-notifications/internal/repository"
	"github.com/Odix-Pay/odixpay-notifications/internal/scheduler"
	"github.com/Odix-Pay/odixpay-notifications/internal/service"
	"github.com/Odix-Pay/odixpay-notifications/internal/template"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("config load failed")
	}

	logger.Info("starting notification service")

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	broker := messaging.NewClient(&messaging.Config{
		Host:        cfg.Broker.Host,
		Port:        cfg.Broker.Port,
		Username:    cfg.Broker.Username,
		Password:    cfg.Broker.Password,
		VHost:       cfg.Broker.VHost,
		Exchange:    cfg.Broker.Exchange,
		ServiceName: cfg.Broker.ServiceName,
		RetryCount:  cfg.Broker.RetryCount,
		RetryDelay:  cfg.Broker.RetryDelay,
	}, logger)
	if err := broker.Connect(); err != nil {
		logger.WithError(err).Fatal("broker connection failed")
	}
	defer broker.Close()

	notificationRepo := repository.NewNotificationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)

	templateCache := cache.NewTemplateCache(redisClient, templateRepo, cfg.Redis.TemplateTTL, logger)
	resolver := template.NewResolver(templateCache, cfg.Defaults.Locale)
	engine := template.NewEngine()

	// Real provider transports (Brevo, Twilio, FCM) plug in behind the
	// ChannelSender interface; the mock provider carries local development.
	senders := &service.SenderRegistry{
		Email: service.MockProviderSender{Provider: "email", FailureRate: cfg.Senders.FailureRate, Logger: logger},
		SMS:   service.MockProviderSender{Provider: "sms", FailureRate: cfg.Senders.FailureRate, Logger: logger},
		Push:  service.MockProviderSender{Provider: "push", FailureRate: cfg.Senders.FailureRate, Logger: logger},
		InApp: service.InAppSender{},
	}

	notificationService := service.NewNotificationService(
		notificationRepo, templateRepo, recipientRepo,
		resolver, engine, senders, templateCache, cfg.Defaults.MaxRetries, logger,
	)

	// Subscriptions are a synchronous startup phase: an unregistered
	// subscription means dropped events, so failure here is fatal.
	subscriber := handlers.NewSubscriber(broker, notificationService, logger)
	if err := subscriber.RegisterAll(); err != nil {
		logger.WithError(err).Fatal("event subscription setup failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := scheduler.NewProcessor(notificationRepo, notificationService, cfg.Scheduler.Interval, logger)
	go processor.Run(ctx)

	app := setupFiberApp()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down notification service")
		cancel()
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("http shutdown failed")
		}
	}()

	logger.WithField("port", cfg.Server.Port).Info("http server listening")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("server startup failed")
	}
}

func initDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func setupFiberApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Notification Service v1.0",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "notification-service",
			"status":  "healthy",
		})
	})

	return app
}
