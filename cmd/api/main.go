package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/scheduler"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/filestore"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Procurement API
// @version         1.0
// @description     Purchase-request workflow API: sourcing, multi-level validation, invoicing and payment tracking.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()
	middleware.SetJWTSecret(cfg.JWT.Secret)

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	store, err := filestore.New(cfg.Storage.Path, cfg.Storage.PublicBaseURL, cfg.Storage.UploadMaxSize)
	if err != nil {
		log.Fatalf("File store init failed: %v", err)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	analyticalRepo := repository.NewAnalyticalRepository(db)

	notificationService := service.NewNotificationService(db, wsHub)
	userService := service.NewUserService(db, userRepo, cfg.JWT)
	requestService := service.NewRequestService(db, requestRepo, txManager, store)
	quoteService := service.NewQuoteService(db, requestRepo, txManager, store, notificationService)
	approvalService := service.NewApprovalService(db, requestRepo, txManager, store, notificationService)
	invoiceService := service.NewInvoiceService(db, requestRepo, txManager, store, notificationService, cfg.Workflow)
	analyticalService := service.NewAnalyticalService(analyticalRepo)
	orgService := service.NewOrgService(db)
	auditService := service.NewAuditService(db)
	statisticsService := service.NewStatisticsService(db)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(requestService, quoteService, approvalService, invoiceService)
	analyticalHandler := handler.NewAnalyticalHandler(analyticalService)
	orgHandler := handler.NewOrgHandler(orgService)
	notificationHandler := handler.NewNotificationHandler(notificationService, wsHub)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Payment-due reminder job
	jobs := scheduler.New(requestRepo, notificationService)
	if err := jobs.Start(cfg.Workflow.ReminderSchedule); err != nil {
		log.Fatalf("Scheduler init failed: %v", err)
	}
	defer jobs.Stop()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	limiter := middleware.NewClientRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router.Use(limiter.Middleware())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Uploaded documents (quotes, purchase orders, invoices)
	router.Static("/files", store.Root())

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	analyticalHandler.RegisterRoutes(router.Group(""))
	orgHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
