package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/config"
	"github.com/noah-isme/sport-sections-api/internal/database"
	"github.com/noah-isme/sport-sections-api/internal/handler"
	"github.com/noah-isme/sport-sections-api/internal/middleware"
	"github.com/noah-isme/sport-sections-api/internal/repository"
	"github.com/noah-isme/sport-sections-api/internal/router"
	"github.com/noah-isme/sport-sections-api/internal/service"
	"github.com/noah-isme/sport-sections-api/internal/session"
	"github.com/noah-isme/sport-sections-api/pkg/broker"
	cloud "github.com/noah-isme/sport-sections-api/pkg/cloudinary"
	"github.com/noah-isme/sport-sections-api/pkg/objectstore"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	ctx := context.Background()

	storage, err := newImageStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.StorageProvider).Msg("failed to initialise image storage")
	}

	var publisher service.EventPublisher
	if cfg.NATSURL != "" {
		conn, err := broker.Connect(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer conn.Drain()
		publisher = broker.NewPublisher(conn, cfg.NATSSubject, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	sessions := session.NewRedisStore(redisClient, cfg.SessionTTL)

	userRepo := repository.NewUserRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, sessions, activityService, validate, service.AuthConfig{SessionTTL: cfg.SessionTTL}, logger)
	sectionService := service.NewSectionService(sectionRepo, applicationRepo, priorityRepo, storage, activityService, validate, cfg.ImageMaxSizeMB, logger)
	priorityService := service.NewPriorityService(applicationRepo, priorityRepo, sectionRepo, logger)
	applicationService := service.NewApplicationService(applicationRepo, priorityRepo, priorityService, nil, activityService, publisher, validate, logger)

	if err := authService.EnsureSuperuser(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap superuser")
	}

	loginLimiter := middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.ImageMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		AccessLog:     true,
		AllowOrigins:  cfg.AllowOrigins,
		SessionLookup: middleware.Session(authService, cfg.SessionCookieName, logger),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler: handler.NewAuthHandler(authService, handler.SessionCookie{
			Name:   cfg.SessionCookieName,
			TTL:    cfg.SessionTTL,
			Secure: cfg.AppEnv == "production",
		}, loginLimiter, logger),
		SectionHandler:     handler.NewSectionHandler(sectionService, logger),
		ApplicationHandler: handler.NewApplicationHandler(applicationService, priorityService, logger),
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		HealthProbes: []handler.HealthProbe{
			{Name: "database", Check: database.PingDatabase(db)},
			{Name: "redis", Check: database.PingRedis(redisClient)},
		},
		ExposeMetrics: true,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func newImageStorage(ctx context.Context, cfg config.Config, logger zerolog.Logger) (service.ImageStorage, error) {
	switch cfg.StorageProvider {
	case config.StorageProviderMinio:
		store, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageProviderCloudinary:
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return nil, err
		}
		return uploader, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
