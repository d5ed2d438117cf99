package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"replyflow/internal/app/replies/config"
	"replyflow/internal/app/replies/handler"
	infrahttp "replyflow/internal/app/replies/infrastructure/http"
	"replyflow/internal/app/replies/infrastructure/messaging"
	"replyflow/internal/app/replies/processor"
	"replyflow/internal/app/replies/repository"
	"replyflow/internal/app/replies/service"
	"replyflow/internal/app/replies/util"
	"replyflow/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("replyflow", logLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЯ К ХРАНИЛИЩАМ ===
	db, err := connectPostgres(cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	logger.Info().Msg("connected to PostgreSQL")

	mongoClient, mongoDB, err := connectMongo(ctx, cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)
	logger.Info().Msg("connected to MongoDB")

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to Redis")

	// === РЕПОЗИТОРИИ ===
	accountRepo := repository.NewAccountRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	reviewRepo := repository.NewReviewRepository(mongoDB)
	usageRepo := repository.NewUsageRepository(redisClient)

	// === ИНФРАСТРУКТУРА ===
	vault, err := util.NewTokenVault(cfg.Vault.Secret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token vault")
	}

	platformClient := infrahttp.NewPlatformAPIClient(cfg.Platform.BaseURL, cfg.Platform.Timeout)
	notifierClient := infrahttp.NewNotifierClient(cfg.Notifier.URL, cfg.Notifier.Timeout)

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()

	// === СЕРВИСЫ ===
	quotaSvc := service.NewQuotaService(usageRepo, businessRepo)

	generatorSvc, err := service.NewGeneratorService(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init reply generator")
	}

	ingestSvc := service.NewIngestService(businessRepo, accountRepo, reviewRepo, vault, platformClient, kafkaProducer)
	processorSvc := service.NewProcessorService(
		reviewRepo, businessRepo, accountRepo, usageRepo,
		quotaSvc, generatorSvc, vault, platformClient, notifierClient,
	)
	businessSvc := service.NewBusinessService(businessRepo, accountRepo, vault, platformClient, quotaSvc)
	reviewSvc := service.NewReviewService(reviewRepo, businessRepo, accountRepo, vault, platformClient, kafkaProducer)

	// === KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		processorSvc,
	)
	kafkaConsumer.Start(ctx)
	defer kafkaConsumer.Stop()
	logger.Info().Str("topic", cfg.Kafka.Topic).Msg("kafka consumer started")

	// === SWEEP SCHEDULER ===
	sweeper := processor.NewSweepScheduler(reviewRepo, kafkaProducer, cfg.Sweep.Cutoff)
	if err := sweeper.Start(ctx, cfg.Sweep.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("failed to start sweep scheduler")
	}
	defer sweeper.Stop()

	// === HTTP СЕРВЕР ===
	webhookHandler := handler.NewWebhookHandler(ingestSvc)
	processHandler := handler.NewProcessHandler(processorSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	businessHandler := handler.NewBusinessHandler(businessSvc)
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	internalMiddleware := handler.NewInternalAuthMiddleware(cfg.Internal.Token)

	router := handler.SetupRoutes(
		webhookHandler, processHandler, reviewHandler, businessHandler,
		authMiddleware, internalMiddleware,
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().Msg("replyflow is running")

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("replyflow stopped gracefully")
}

// connectPostgres устанавливает соединение с PostgreSQL через GORM
func connectPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	// Retry logic для устойчивости при запуске в Docker
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			sqlDB, sqlErr := db.DB()
			if sqlErr != nil {
				err = sqlErr
			} else if pingErr := sqlDB.Ping(); pingErr != nil {
				err = pingErr
			} else {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetConnMaxLifetime(5 * time.Minute)
				return db, nil
			}
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("failed to connect to PostgreSQL, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectMongo устанавливает соединение с MongoDB
func connectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// connectRedis устанавливает соединение с Redis
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	for i := 0; i < 10; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		logger.Warn().Int("attempt", i+1).Msg("failed to connect to Redis, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to Redis after 10 attempts")
}
