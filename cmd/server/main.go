package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safepath-server/internal/config"
	"safepath-server/internal/database"
	"safepath-server/internal/generation"
	"safepath-server/internal/handler"
	"safepath-server/internal/images"
	"safepath-server/internal/interfaces"
	"safepath-server/internal/logger"
	"safepath-server/internal/messaging"
	"safepath-server/internal/middleware"
	"safepath-server/internal/safety"
	"safepath-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgPool, err := setupPostgres(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	zap.L().Info("Connected to PostgreSQL")

	if err := database.RunMigrations(cfg.DatabaseURL(), log); err != nil {
		zap.L().Fatal("Failed to run database migrations", zap.Error(err))
	}

	redisClient, err := setupRedis(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis")

	// RabbitMQ is optional. Without it the story.published event is a no-op.
	var eventPublisher interfaces.StoryEventPublisher = messaging.NoopStoryEventPublisher{}
	if cfg.RabbitMQURL != "" {
		mqConn, err := amqp091.Dial(cfg.RabbitMQURL)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		publisher, err := messaging.NewRabbitMQStoryEventPublisher(mqConn, log)
		if err != nil {
			zap.L().Fatal("Failed to create story event publisher", zap.Error(err))
		}
		defer publisher.Close()
		eventPublisher = publisher
		zap.L().Info("Connected to RabbitMQ")
	} else {
		zap.L().Info("RABBITMQ_URL not set, story events disabled")
	}

	// --- Generation, Safety, Images ---
	slideGenerator, err := generation.NewOllamaSlideGenerator(generation.Config{
		BaseURL:           cfg.OllamaBaseURL,
		PlannerModel:      cfg.OllamaPlannerModel,
		StoryModel:        cfg.OllamaStoryModel,
		RequestTimeout:    cfg.OllamaRequestTimeout,
		FallbackToDefault: cfg.GenerationFallbackToDefault,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to create slide generator", zap.Error(err))
	}

	var reviewer safety.Reviewer
	if cfg.SafetyCriticEnableLLMReview {
		reviewer, err = safety.NewOllamaReviewer(cfg.OllamaBaseURL, cfg.SafetyCriticLLMReviewModel, cfg.OllamaRequestTimeout, log)
		if err != nil {
			zap.L().Fatal("Failed to create safety reviewer", zap.Error(err))
		}
	}
	critic := safety.NewCritic(safety.Config{
		Enabled:               cfg.SafetyCriticEnabled,
		Strict:                cfg.SafetyCriticStrict,
		MaxTextLength:         cfg.SafetyCriticMaxTextLength,
		MaxScaryTermsPerSlide: cfg.SafetyCriticMaxScaryTerms,
	}, reviewer, log)

	imageGenerator := images.NewImageGenerator(images.Config{
		APIKey:  cfg.ImageAPIKey,
		BaseURL: cfg.ImageAPIBaseURL,
		Timeout: cfg.ImageTimeout,
	}, log)

	// --- Dependency Injection ---
	accountRepo := database.NewPgNgoAccountRepository(pgPool, log.Named("PgNgoAccountRepo"))
	profileRepo := database.NewPgStudentProfileRepository(pgPool, log.Named("PgStudentProfileRepo"))
	storyRepo := database.NewPgStoryRepository(pgPool, log.Named("PgStoryRepo"))
	sessionTracker := database.NewRedisSessionTracker(redisClient, cfg.SessionWindow, log)

	authSvc := service.NewAuthService(accountRepo, cfg.JWTSecret, cfg.AccessTokenTTL, log)
	storySvc := service.NewStoryService(storyRepo, accountRepo, slideGenerator, critic, imageGenerator, sessionTracker, eventPublisher, log)
	studentSvc := service.NewStudentService(profileRepo, log)

	apiHandler := handler.NewHandler(authSvc, storySvc, studentSvc, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:5173"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Session-Key"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	apiHandler.RegisterRoutes(router)

	// Prometheus middleware goes on after the routes are registered.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, lastErr = database.NewPgxPool(connectCtx, cfg.DatabaseURL(), log)
		connectCancel()

		if lastErr == nil {
			return pool, nil
		}

		log.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client and verifies connectivity.
func setupRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
