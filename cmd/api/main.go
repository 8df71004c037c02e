package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/config"
	"github.com/noah-isme/mockview-api/internal/cover"
	"github.com/noah-isme/mockview-api/internal/database"
	"github.com/noah-isme/mockview-api/internal/handler"
	"github.com/noah-isme/mockview-api/internal/middleware"
	"github.com/noah-isme/mockview-api/internal/prompts"
	"github.com/noah-isme/mockview-api/internal/repository"
	"github.com/noah-isme/mockview-api/internal/router"
	"github.com/noah-isme/mockview-api/internal/service"
	"github.com/noah-isme/mockview-api/pkg/ai"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "mockview-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openInterviewStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open interview store")
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, running without cache and pub/sub")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events stay local")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	generator, err := newTextGenerator(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("failed to create text generator")
	}

	promptManager, err := prompts.NewManager()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load prompt templates")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	eventService := service.NewEventService(redisClient, cfg.EventsChannel, natsConn, logger)
	eventService.Start(ctx)

	interviewService := service.NewInterviewService(
		repo,
		service.NewQuestionGenerator(generator, promptManager, logger),
		service.NewTranscriptAnalyzer(generator, promptManager, logger),
		eventService,
		redisClient,
		cfg.CacheTTL,
		cover.Random,
		validate,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		JWTSecret:    cfg.JWTSecret,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		VapiHandler: handler.NewVapiHandler(interviewService, handler.RateLimitConfig{
			Max:    cfg.GenerateRateLimit,
			Window: cfg.GenerateRateWindow,
		}, logger),
		InterviewHandler: handler.NewInterviewHandler(interviewService, logger),
		EventHandler:     handler.NewEventHandler(eventService, cfg.EventPingInterval, logger),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("store", cfg.DatabaseDriver).Str("ai_provider", generator.Provider()).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

func openInterviewStore(ctx context.Context, cfg config.Config) (repository.InterviewRepository, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		collection := client.Database(cfg.DatabaseName).Collection(repository.InterviewCollection)
		if err := repository.EnsureInterviewIndexes(ctx, collection); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return repository.NewInterviewMongoRepository(collection), closeFn, nil
	default:
		connect := database.ConnectPostgres
		if cfg.DatabaseDriver == config.DriverSQLite {
			connect = database.ConnectSQLite
		}
		db, err := connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewInterviewRepository(db), closeFn, nil
	}
}

func newTextGenerator(cfg config.Config, logger zerolog.Logger) (ai.TextGenerator, error) {
	if cfg.AIProvider == config.ProviderOpenAI {
		generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return generator, nil
	}

	generator, err := ai.NewGeminiGenerator(ai.GeminiConfig{
		APIKey:          cfg.GeminiAPIKey,
		BaseURL:         cfg.GeminiBaseURL,
		APIVersion:      cfg.GeminiAPIVersion,
		QuestionModel:   cfg.GeminiQuestionModel,
		EvaluationModel: cfg.GeminiFeedbackModel,
		Timeout:         cfg.AITimeout,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return generator, nil
}
