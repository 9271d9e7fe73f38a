package router

import (
	"os"
	"time"

	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/handlers"
	"github.com/voicereachhq/voicereach-backend/internal/middleware"
	"github.com/voicereachhq/voicereach-backend/internal/services"
	"github.com/voicereachhq/voicereach-backend/internal/services/auth"
	"github.com/voicereachhq/voicereach-backend/internal/services/excel"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with all API routes. The services
// with background lifecycles (scheduler, call events, SSE) are constructed in
// main and passed in; the plain CRUD services are built here.
func SetupRouter(
	db *gorm.DB,
	authService *auth.AuthService,
	schedulerService *services.CampaignSchedulerService,
	callService *services.CallService,
	webhookService *services.WebhookService,
	callEventService *services.CallEventService,
	sseHub *services.SSEHub,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create repositories and CRUD services
	userRepo := repository.NewUserRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	enrollmentRepo := repository.NewLeadCampaignRepository(db)

	leadService := services.NewLeadService(leadRepo, enrollmentRepo)
	campaignService := services.NewCampaignService(campaignRepo)

	exportsDir := os.Getenv("EXPORTS_DIR")
	if exportsDir == "" {
		exportsDir = "./exports"
	}
	excelService := excel.NewExcelService(leadRepo, exportsDir)

	// Create middleware with services
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(authService, userRepo)

	// Create handlers with services
	authHandler := handlers.NewAuthHandler(authService)
	leadHandler := handlers.NewLeadHandler(leadService, callService)
	campaignHandler := handlers.NewCampaignHandler(campaignService, schedulerService)
	callHandler := handlers.NewCallHandler(callService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService)
	callEventHandler := handlers.NewCallEventHandler(callEventService, leadService, sseHub)
	excelHandler := handlers.NewExcelHandler(excelService)
	adminHandler := handlers.NewAdminHandler(authService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.RefreshToken)
		}

		// Provider webhook (public, validated by payload)
		api.POST("/webhooks/bland-ai", webhookHandler.HandleBlandWebhook)

		// Cron sweep entry point (public, validated by CRON_SECRET)
		api.GET("/cron/process-campaigns", schedulerHandler.ProcessCampaignsCron)

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			// Auth protected routes
			authProtected := protected.Group("/auth")
			{
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.GET("/profile", authHandler.GetProfile)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			// Lead routes
			leads := protected.Group("/leads")
			{
				leads.POST("", leadHandler.CreateLead)
				leads.GET("", leadHandler.GetLeads)
				leads.GET("/export", excelHandler.ExportLeads)
				leads.POST("/import", excelHandler.ImportLeads)
				leads.GET("/:id", leadHandler.GetLead)
				leads.PUT("/:id", leadHandler.UpdateLead)
				leads.DELETE("/:id", leadHandler.DeleteLead)
				leads.GET("/:id/calls", leadHandler.GetLeadCalls)
				leads.GET("/:id/events", callEventHandler.GetLeadEvents)
				leads.GET("/:id/events/stream", callEventHandler.StreamLeadEvents)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/leads", campaignHandler.EnrollLead)
				campaigns.DELETE("/:id/leads/:leadId", campaignHandler.UnenrollLead)
			}

			// Call routes
			calls := protected.Group("/calls")
			{
				calls.POST("", callHandler.InitiateCall)
				calls.GET("", callHandler.GetCalls)
				calls.GET("/:id", callHandler.GetCall)
				calls.GET("/:id/status", callHandler.GetCallStatus)
			}

			// Event stream for the current user
			protected.GET("/events/stream", callEventHandler.StreamEvents)

			// Admin routes (requires admin privileges)
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/users", adminHandler.GetAllUsers)
				admin.PUT("/users/:id/active", adminHandler.SetUserActive)
			}

			// Manual scheduler sweep (admin only)
			scheduler := protected.Group("/scheduler")
			scheduler.Use(middleware.AdminOnly())
			{
				scheduler.POST("/process-campaigns", schedulerHandler.ProcessCampaigns)
			}
		}
	}

	return r
}
