package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"porchboard/internal/caching"
	"porchboard/internal/handlers"
	"porchboard/internal/jobs/background"
	"porchboard/internal/middleware"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
	"porchboard/internal/services"
	"porchboard/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret, sessions will not survive restarts")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "porchboard-media"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Stripe configuration
	stripeSecretKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeSecretKey == "" {
		log.Fatal("STRIPE_SECRET_KEY environment variable is required")
	}
	stripeWebhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if stripeWebhookSecret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET environment variable is required")
	}
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	// Storage service
	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Fatalf("Failed to ensure media bucket exists: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	cityRepo := repositories.NewCityRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)
	defer cacheSvc.Close()

	// Services
	authSvc := services.NewAuthService(userRepo, jwtSecret)
	citySvc := services.NewCityService(cityRepo, eventRepo, storageSvc, cacheSvc)
	eventSvc := services.NewEventService(eventRepo, storageSvc)
	userSvc := services.NewUserService(userRepo, cityRepo)
	billingClient := services.NewStripeClient(stripeSecretKey, frontendURL)
	subscriptionSvc := services.NewSubscriptionService(cityRepo, billingClient, cacheSvc, stripeWebhookSecret)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	cityHandlers := handlers.NewCityHandlers(citySvc)
	eventHandlers := handlers.NewEventHandlers(eventSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc, userRepo)

	// Background jobs
	jobScheduler, err := background.NewJobScheduler(cityRepo, eventRepo, cacheSvc)
	if err != nil {
		log.Fatalf("Failed to initialize job scheduler: %v", err)
	}
	jobScheduler.Start()
	defer func() {
		if err := jobScheduler.Shutdown(); err != nil {
			log.Printf("Job scheduler shutdown: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.RateLimit(cacheSvc))

	authn := middleware.Authenticate(authSvc, userRepo)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	creatorOrAdmin := middleware.RequireRole(models.RoleAdmin, models.RoleEventCreator)

	// Health endpoints (no auth required)
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", func(c echo.Context) error {
		return handlers.ReadinessCheck(c, pool)
	})

	api := e.Group("/api")

	// Authentication routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)

	// City routes
	cities := api.Group("/cities")
	cities.POST("", cityHandlers.Create)
	cities.GET("/domain/:domain", cityHandlers.GetByDomain)
	cities.PATCH("/:id/branding", cityHandlers.UpdateBranding, authn, adminOnly)
	cities.GET("/:id/analytics", cityHandlers.Analytics, authn, adminOnly)

	// Event routes
	events := api.Group("/events")
	events.GET("", eventHandlers.List)
	events.POST("", eventHandlers.Create, authn, creatorOrAdmin)
	events.PATCH("/:id/status", eventHandlers.UpdateStatus, authn, adminOnly)
	events.POST("/:id/flag", eventHandlers.Flag)

	// User routes
	users := api.Group("/users", authn)
	users.GET("/me", userHandlers.Me)
	users.PATCH("/me", userHandlers.UpdateMe)
	users.GET("/city/:cityId", userHandlers.ListByCity, adminOnly)
	users.PATCH("/:id/role", userHandlers.ChangeRole, adminOnly)

	// Subscription routes
	subscriptions := api.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandlers.Subscribe, authn, adminOnly)
	subscriptions.GET("", subscriptionHandlers.Get, authn, adminOnly)
	subscriptions.POST("/webhook", subscriptionHandlers.Webhook)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	go func() {
		log.Printf("PorchBoard server v%s starting on port %d", version, port)
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	if err := e.Close(); err != nil {
		log.Printf("Server close: %v", err)
	}
}
