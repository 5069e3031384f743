package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"storefront/config"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/clients/imagestore"
	"storefront/internal/delivery"
	grpcHandler "storefront/internal/delivery/grpc"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/middleware"
	"storefront/internal/receipt"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/pkg/db"
)

func main() {
	logger := setupLogger("info", "text")

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger = setupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting Storefront API...")

	database, err := db.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Errorf("Error closing database connection: %v", err)
		} else {
			logger.Info("Database connection closed.")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, database, logger); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	// --- Optional infrastructure ---
	productCache := cache.NewNoopProductCache()
	var limiter middleware.Limiter = cache.NewMemoryLimiter(cfg.RateLimitPerMinute)
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		productCache = cache.NewRedisProductCache(redisClient, cfg.Redis.CacheTTL, logger)
		limiter = cache.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		logger.Info("Redis product cache and rate limiter enabled.")
	}

	var publisher interface {
		domain.OrderEventPublisher
		Close() error
	} = events.NewLogPublisher(logger)
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
		logger.Infof("Kafka order events enabled on topic %s", cfg.Kafka.OrderTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Errorf("Error closing event publisher: %v", err)
		}
	}()

	images, err := imagestore.New(cfg.Images, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize image store: %v", err)
	}

	// --- Dependency Injection ---
	userRepo := repository.NewPostgresUserRepository(database, logger)
	categoryRepo := repository.NewPostgresCategoryRepository(database, logger)
	productRepo := repository.NewPostgresProductRepository(database, logger)
	cartRepo := repository.NewPostgresCartRepository(database, logger)
	orderRepo := repository.NewPostgresOrderRepository(database, logger)
	logger.Info("Repositories initialized.")

	tokens := auth.NewTokenManager(cfg.Auth)
	userUseCase := usecase.NewUserUseCase(userRepo, tokens, logger)
	categoryUseCase := usecase.NewCategoryUseCase(categoryRepo, images, logger)
	productUseCase := usecase.NewProductUseCase(productRepo, categoryRepo, productCache, images, logger)
	cartUseCase := usecase.NewCartUseCase(cartRepo, productRepo, logger)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, cartRepo, productRepo, productCache, publisher, logger)
	logger.Info("Use cases initialized.")

	if cfg.Auth.AdminEmail != "" {
		if err := userUseCase.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatalf("Failed to bootstrap admin account: %v", err)
		}
	}

	guards := delivery.Guards{
		Auth:      middleware.Auth(tokens, logger),
		Admin:     middleware.AdminOnly(logger),
		RateLimit: middleware.RateLimit(limiter, logger),
	}

	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	delivery.NewHealthHandler(database, logger).RegisterRoutes(router)
	delivery.NewAuthHandler(userUseCase, logger).RegisterRoutes(router, guards)
	delivery.NewCategoryHandler(categoryUseCase, cfg.Images.MaxBytes, logger).RegisterRoutes(router, guards)
	delivery.NewProductHandler(productUseCase, cfg.Images.MaxBytes, logger).RegisterRoutes(router, guards)
	delivery.NewCartHandler(cartUseCase, logger).RegisterRoutes(router, guards)
	delivery.NewOrderHandler(orderUseCase, receipt.NewPDFRenderer(cfg.StoreName, logger), logger).RegisterRoutes(router, guards)
	if strings.EqualFold(cfg.Images.Store, "local") {
		router.Static("/uploads", cfg.Images.UploadDir)
	}
	logger.Info("Routes registered.")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
	}).Handler(router)

	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- gRPC health ---
	healthServer := grpcHandler.NewHealthServer(database, logger)
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}
	go healthServer.Watch(ctx, 15*time.Second)
	go func() {
		if err := healthServer.Serve(lis); err != nil {
			logger.Errorf("gRPC health server stopped: %v", err)
		}
	}()

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Warn("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shut down: %v", err)
	}
	healthServer.GracefulStop()
	logger.Info("Storefront API shut down gracefully.")
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", level, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}
