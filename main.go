package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/config"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/handlers"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/repositories/memory"
	"github.com/mohammedtarek206/elamid/internal/repositories/postgres"
	"github.com/mohammedtarek206/elamid/internal/services"
	"github.com/mohammedtarek206/elamid/internal/utils"
	"github.com/mohammedtarek206/elamid/internal/validator"
	"github.com/mohammedtarek206/elamid/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repo, repoManager, err := openRepository(cfg, redisClient, logger)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize events
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	publisher, waitAudit, err := openEvents(auditCtx, cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize events: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Logger:    slogLogger,
		Validator: validator.NewBusinessValidator(),
		Tokens: auth.NewTokenIssuer(auth.TokenConfig{
			Secret:          []byte(cfg.Auth.JWTSecret),
			StudentTokenTTL: cfg.Auth.StudentTokenTTL,
			AdminTokenTTL:   cfg.Auth.AdminTokenTTL,
		}),
		Cache:  cache.NewCacheManager(redisClient),
		Events: publisher,
	}, serviceConfig(cfg))
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if cfg.Seed.AdminUsername != "" && cfg.Seed.AdminPassword != "" {
		if err := serviceManager.Auth().SeedAdmin(context.Background(), cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		logger.Info("Admin account ready", "username", cfg.Seed.AdminUsername)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)
	handlers.NewHandlerManager(serviceManager, cfg.Auth.CookieSecure, logger).SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closing the publisher ends the in-process audit subscriptions
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	stopAudit()
	waitAudit()

	if repoManager != nil {
		if err := repoManager.Shutdown(ctx); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close redis", "error", err)
		}
	}

	logger.Info("Server exited")
}

// openRepository returns the configured store. The manager is nil for the
// in-memory store, which has nothing to release.
func openRepository(cfg *config.Config, redisClient *redis.Client, logger utils.Logger) (repositories.Repository, repositories.RepositoryManager, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.New(), nil, nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		return nil, nil, err
	}
	return repoManager.GetRepository(), repoManager, nil
}

// openEvents picks Kafka when brokers are configured. Otherwise events stay in
// process and an audit consumer logs each one.
func openEvents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.EventPublisher, func(), error) {
	if len(cfg.Events.KafkaBrokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Publishing events to kafka", "brokers", cfg.Events.KafkaBrokers)
		return events.NewWatermillPublisher(pub, cfg.Events.TopicPrefix, logger), func() {}, nil
	}

	pubSub := events.NewGoChannel(logger)
	wait, err := events.RunAuditLog(ctx, pubSub, cfg.Events.TopicPrefix, logger)
	if err != nil {
		return nil, nil, err
	}
	return events.NewWatermillPublisher(pubSub, cfg.Events.TopicPrefix, logger), wait, nil
}

func serviceConfig(cfg *config.Config) services.ServiceManagerConfig {
	smConfig := services.DefaultServiceManagerConfig()
	smConfig.Exam = services.ExamPolicy{
		EnforceAttemptLimit: cfg.Exam.EnforceAttemptLimit,
		EnforceDeadline:     cfg.Exam.EnforceDeadline,
		DeadlineGrace:       cfg.Exam.DeadlineGrace,
	}
	return smConfig
}
