package main

import (
	"context"
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

	"github.com/SAP-F-2025/elearning-service/internal/auth"
	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/events"
	"github.com/SAP-F-2025/elearning-service/internal/handlers"
	"github.com/SAP-F-2025/elearning-service/internal/mail"
	"github.com/SAP-F-2025/elearning-service/internal/ratelimit"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/docstore"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/services"
	"github.com/SAP-F-2025/elearning-service/internal/utils"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
	"github.com/SAP-F-2025/elearning-service/pkg"
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
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis", "error", err.Error())
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize event bus and the notification router behind it
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	sender := mail.NewSender(cfg.SendGrid, slogLogger)
	eventRouter, err := events.NewRouter(bus, events.NewNotifier(sender, slogLogger))
	if err != nil {
		log.Fatalf("Failed to initialize event router: %v", err)
	}
	go func() {
		if err := eventRouter.Run(context.Background()); err != nil {
			logger.Error("Event router stopped", "error", err.Error())
		}
	}()

	// One-time passcodes live in redis when available
	var otpStore auth.OTPStore
	otpAttempts := auth.WithMaxAttempts(cfg.OTP.MaxAttempts)
	if redisClient != nil {
		otpStore = auth.NewRedisOTPStore(redisClient, otpAttempts)
	} else {
		otpStore = auth.NewGormOTPStore(db, otpAttempts)
	}
	tokens := auth.NewTokenManager(cfg.JWT)

	var docs *docstore.Store
	if cfg.DocstoreEnabled {
		if redisClient == nil {
			logger.Warn("DOCSTORE_ENABLED requires Redis, peer sessions disabled")
		} else {
			docs = docstore.NewStore(redisClient, "docstore")
		}
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(services.Dependencies{
		Repo:      repo,
		Logger:    slogLogger,
		Validator: validator.New(),
		Publisher: bus,
		Auth: services.AuthDeps{
			OTP:       otpStore,
			Mail:      sender,
			Tokens:    tokens,
			Events:    bus,
			OTPConfig: cfg.OTP,
		},
		Docs: docs,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Bearer tokens are either our own JWTs or Casdoor tokens
	var resolver handlers.IdentityResolver
	if cfg.AuthProvider == "casdoor" {
		resolver = casdoor.NewUserCasdoor(casdoor.NewClient(cfg.Casdoor), repo.User(), cache.NewCacheManager(redisClient))
	} else {
		resolver = auth.NewLocalResolver(tokens, repo.User())
	}

	// Auth throttling shares counters across replicas through redis
	var limits handlers.RateLimits
	if cfg.RateLimit.Enabled {
		limits = handlers.RateLimits{
			Anonymous: ratelimit.Rule{Limit: cfg.RateLimit.Anonymous, Window: cfg.RateLimit.Window},
			User:      ratelimit.Rule{Limit: cfg.RateLimit.User, Window: cfg.RateLimit.Window},
		}
		if redisClient != nil {
			limits.Store = ratelimit.NewRedisStore(redisClient, "ratelimit")
		} else {
			limits.Store = ratelimit.NewMemoryStore()
		}
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, resolver, logger, cfg.Pagination, limits)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger, cfg.MetricsEnabled)

	// Setup routes
	handlerManager.SetupRoutes(router, cfg.MetricsEnabled)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handlers.StripTrailingSlash(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "auth_provider", cfg.AuthProvider)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error())
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err.Error())
	}

	// Drain notifications before the bus goes away
	if err := eventRouter.Close(); err != nil {
		logger.Error("Failed to close event router", "error", err.Error())
	}
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err.Error())
	}

	// Close database and Redis connections
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close database", "error", err.Error())
	}

	logger.Info("Server exited")
}
