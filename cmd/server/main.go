package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicereachhq/voicereach-backend/docs"
	"github.com/voicereachhq/voicereach-backend/internal/config"
	"github.com/voicereachhq/voicereach-backend/internal/database"
	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/router"
	"github.com/voicereachhq/voicereach-backend/internal/services"
	"github.com/voicereachhq/voicereach-backend/internal/services/auth"
	"github.com/voicereachhq/voicereach-backend/internal/services/blandai"
	"github.com/voicereachhq/voicereach-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title VoiceReach Backend API
// @version 1.0
// @description Outbound calling and lead management API with JWT authentication
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@voicereach.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Set Swagger base path dynamically
	basePath := getEnv("SWAGGER_BASE_PATH", "/api/v1")
	docs.SwaggerInfo.BasePath = basePath

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	enrollmentRepo := repository.NewLeadCampaignRepository(db)
	callRepo := repository.NewCallRepository(db)
	eventRepo := repository.NewCallEventRepository(db)

	// Initialize auth service
	authService := auth.NewAuthService(db)

	// Create SSE Hub (shared by the event consumer and the stream handlers)
	sseHub := services.NewSSEHub()

	// Initialize RabbitMQ. The API still works without it: events are
	// recorded directly instead of flowing through the queue.
	var eventPublisher services.CallEventPublisher
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		logrus.Info("RabbitMQ service initialized")
		eventPublisher = rabbitMQService
		defer rabbitMQService.Close()
	}

	// Initialize call event service and start the queue consumer; without a
	// broker, publishers write through the service directly
	callEventService := services.NewCallEventService(eventRepo, sseHub, rabbitMQService)
	if rabbitMQService != nil {
		if err := callEventService.StartRabbitMQConsumer(); err != nil {
			logrus.Warnf("Failed to start call event consumer: %v", err)
		} else {
			logrus.Info("Call event consumer started")
			defer callEventService.StopRabbitMQConsumer()
		}
	} else {
		eventPublisher = services.NewDirectEventPublisher(callEventService)
	}

	// Start event cleanup (every 6 hours, retention from env)
	eventRetentionDays := getEnvAsInt("EVENT_RETENTION_DAYS", 30)
	callEventService.StartEventCleanup(6*time.Hour, eventRetentionDays)
	defer callEventService.StopEventCleanup()

	// Initialize the Bland.ai voice gateway
	blandCfg := config.GetBlandConfig()
	gateway := blandai.NewClient(blandCfg)

	// Initialize call and webhook services
	callService := services.NewCallService(callRepo, leadRepo, gateway, blandCfg, eventPublisher)
	webhookService := services.NewWebhookService(services.NewWebhookCallStore(callRepo), leadRepo, eventPublisher)

	// Initialize the campaign scheduler
	schedulerInterval := time.Duration(getEnvAsInt("SCHEDULER_INTERVAL_SECONDS", 60)) * time.Second
	schedulerPoolSize := getEnvAsInt("SCHEDULER_POOL_SIZE", 10)
	schedulerService, err := services.NewCampaignSchedulerService(
		enrollmentRepo,
		callRepo,
		leadRepo,
		campaignRepo,
		gateway,
		blandCfg,
		eventPublisher,
		schedulerInterval,
		schedulerPoolSize,
	)
	if err != nil {
		logrus.Fatalf("Failed to initialize campaign scheduler: %v", err)
	}
	schedulerService.Start()
	defer schedulerService.Stop()

	// Create admin user if not exists
	if err := authService.CreateAdminUser(); err != nil {
		logrus.Warnf("Failed to create admin user: %v", err)
	}

	// Initialize token cleanup service
	tokenCleanupService := auth.NewTokenCleanupService(db)
	tokenCleanupService.Start()
	defer tokenCleanupService.Stop()

	// Initialize router
	r := router.SetupRouter(db, authService, schedulerService, callService, webhookService, callEventService, sseHub)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}
