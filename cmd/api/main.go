package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-admin-api/internal/config"
	"github.com/noah-isme/lms-admin-api/internal/database"
	"github.com/noah-isme/lms-admin-api/internal/handler"
	"github.com/noah-isme/lms-admin-api/internal/middleware"
	"github.com/noah-isme/lms-admin-api/internal/observability"
	"github.com/noah-isme/lms-admin-api/internal/repository"
	"github.com/noah-isme/lms-admin-api/internal/router"
	"github.com/noah-isme/lms-admin-api/internal/service"
	"github.com/noah-isme/lms-admin-api/pkg/ai"
	cloud "github.com/noah-isme/lms-admin-api/pkg/cloudinary"
	"github.com/noah-isme/lms-admin-api/pkg/tutor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	matcher := buildTutor(cfg, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	stateRepo := repository.NewLessonStateRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	progressService := service.NewStudentProgressService(service.StudentProgressDeps{
		Students:    studentRepo,
		Lessons:     lessonRepo,
		Attempts:    attemptRepo,
		States:      stateRepo,
		Source:      repository.NewProgressSource(studentRepo, courseRepo, lessonRepo, attemptRepo, stateRepo),
		Cache:       redisClient,
		CacheTTL:    cfg.ProgressCacheTTL,
		NATS:        natsConn,
		Concurrency: cfg.ProgressConcurrency,
		Validator:   validate,
	}, logger)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxSizeMB, logger)
	adminStudentService := service.NewAdminStudentService(studentRepo, courseRepo, progressService, validate, logger)
	courseService := service.NewCourseService(courseRepo, lessonRepo, studentRepo, uploadService, progressService, validate, logger)
	authService := service.NewAuthService(service.AuthConfig{
		Secret:            cfg.JWTSecret,
		TTL:               cfg.JWTTTL,
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
	}, validate, logger)
	tutorService := service.NewTutorService(matcher, validate, logger)
	analyticsService := service.NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), redisClient, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024 * 4,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		TutorHandler:        handler.NewTutorHandler(tutorService, logger),
		AdminStudentHandler: handler.NewAdminStudentHandler(adminStudentService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, logger),
		DashboardHandler:    handler.NewAdminAnalyticsHandler(analyticsService, logger),
		HealthChecks: map[string]handler.DependencyCheck{
			"postgres": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
			"nats": func(ctx context.Context) error {
				if natsConn == nil || natsConn.Status() == nats.CONNECTED {
					return nil
				}
				return nats.ErrConnectionClosed
			},
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func buildTutor(cfg config.Config, logger zerolog.Logger) *tutor.Matcher {
	opts := []tutor.Option{tutor.WithMinSimilarity(cfg.TutorMinSimilarity)}
	if cfg.OpenAIAPIKey != "" {
		answerer, err := ai.NewOpenAIAnswerer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("tutor fallback disabled")
		} else {
			opts = append(opts, tutor.WithFallback(answerer))
		}
	}

	entries, err := tutor.LoadFile(cfg.TutorDataPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.TutorDataPath).Msg("tutor table unavailable")
	}
	matcher := tutor.New(entries, opts...)
	logger.Info().Int("entries", matcher.Len()).Msg("tutor table loaded")

	return matcher
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
