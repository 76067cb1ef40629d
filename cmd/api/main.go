package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/school-portal-api/internal/config"
	"github.com/noah-isme/school-portal-api/internal/database"
	"github.com/noah-isme/school-portal-api/internal/handler"
	"github.com/noah-isme/school-portal-api/internal/middleware"
	"github.com/noah-isme/school-portal-api/internal/repository"
	"github.com/noah-isme/school-portal-api/internal/router"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/internal/storage/jsonfile"
	cloud "github.com/noah-isme/school-portal-api/pkg/cloudinary"
	"github.com/noah-isme/school-portal-api/pkg/localstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("failed to open storage")
	}
	defer closeStore()

	healthChecks := map[string]handler.DependencyCheck{}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, grade report caching disabled")
		} else {
			defer redisClient.Close()
			healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, grade events disabled")
		} else {
			defer natsConn.Drain()
			healthChecks["nats"] = func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("nats disconnected")
				}
				return nil
			}
		}
	}

	uploader, err := newUploader(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.UploadsDriver).Msg("failed to create uploader")
	}

	validate := newValidator()
	cache := service.NewRedisReportCache(redisClient, logger)
	events := service.NewNATSPublisher(natsConn, cfg.EventsSubject, logger)

	classroomService := service.NewClassroomService(store.Classrooms, validate, logger)
	assignmentService := service.NewAssignmentService(store.Classrooms, store.Assignments, validate, cache, events, logger)
	gradebookService := service.NewGradebookService(store, validate, cache, cfg.GradebookCacheTTL, events, logger)
	submissionService := service.NewSubmissionService(store, uploader, cfg.UploadsMaxBytes, cache, events, logger)

	submissionLimiter := middleware.RateLimit("submissions", cfg.SubmissionRatePerMinute, time.Minute)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadsMaxBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		ClassroomHandler:  handler.NewClassroomHandler(classroomService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		GradebookHandler:  handler.NewGradebookHandler(gradebookService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, submissionLimiter, logger),
		HealthChecks:      healthChecks,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("storage", cfg.StorageDriver).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func openStore(cfg config.Config, logger zerolog.Logger) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageJSON:
		store, err := jsonfile.Open(cfg.DataDir)
		if err != nil {
			return repository.Store{}, nil, err
		}
		logger.Info().Str("dir", cfg.DataDir).Msg("using json file storage")
		return store.Repositories(), func() {}, nil
	default:
		var connect func(string) (*gorm.DB, error)
		target := cfg.DatabaseURL
		if cfg.StorageDriver == config.StorageSQLite {
			connect = database.ConnectSQLite
			target = cfg.SQLitePath
		} else {
			connect = database.ConnectPostgres
		}

		db, err := connect(target)
		if err != nil {
			return repository.Store{}, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return repository.Store{}, nil, err
		}

		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewGormStore(db), closeDB, nil
	}
}

func newUploader(cfg config.Config, logger zerolog.Logger) (service.FileUploader, error) {
	if cfg.UploadsDriver == config.UploadsCloudinary {
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
	}

	uploader, err := localstore.New(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("dir", cfg.UploadsDir).Msg("storing submissions on local disk")
	return uploader, nil
}

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
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
