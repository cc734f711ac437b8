package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "sitebooks/api/swagger" // swagger docs
	"sitebooks/internal/config"
	"sitebooks/internal/database"
	"sitebooks/internal/handler"
	"sitebooks/internal/logger"
	"sitebooks/internal/middleware"
	"sitebooks/internal/realtime"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"
	"sitebooks/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Sitebooks API
// @version         1.0
// @description     Construction site accounting: projects, expenses, inventory, purchases, payroll.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	if !envLoaded {
		zlog.Info("no configs/.env file found, using process environment")
	}

	db, err := database.NewConnection(cfg.DBDriver, cfg.DSN(), zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Change fan-out between instances is optional.
	var notifier realtime.Notifier
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zlog.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			zlog.Fatal("redis unreachable", zap.Error(err))
		}
		notifier = realtime.NewRedisNotifier(client, zlog)
		zlog.Info("change notifications relayed over redis")
	}

	hub := realtime.NewHub(zlog, notifier)
	go func() {
		if err := hub.Run(ctx); err != nil {
			zlog.Error("change relay stopped", zap.Error(err))
		}
	}()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewJobRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	stockRepo := repository.NewStockRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	salaryRepo := repository.NewSalaryRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	dataRepo := repository.NewDataRepository(db)

	authService := service.NewAuthService(userRepo, jobRepo, auditRepo, txManager, hub, []byte(cfg.JWTSecret))
	jobService := service.NewJobService(jobRepo, auditRepo, txManager, hub, authService)
	userService := service.NewUserService(userRepo, jobRepo, auditRepo, txManager, hub)
	projectService := service.NewProjectService(projectRepo, auditRepo, txManager, hub)
	budgetService := service.NewBudgetService(budgetRepo, projectRepo, auditRepo, txManager, hub)
	expenseService := service.NewExpenseService(expenseRepo, projectRepo, budgetRepo, inventoryRepo, stockRepo, auditRepo, txManager, hub)
	inventoryService := service.NewInventoryService(inventoryRepo, stockRepo, expenseRepo, projectRepo, budgetRepo, auditRepo, txManager, hub)
	purchaseService := service.NewPurchaseService(purchaseRepo, inventoryRepo, stockRepo, partnerRepo, projectRepo, auditRepo, txManager, hub)
	journalService := service.NewJournalService(journalRepo, auditRepo, txManager, hub)
	employeeService := service.NewEmployeeService(employeeRepo, salaryRepo, projectRepo, auditRepo, txManager, hub)
	salaryService := service.NewSalaryService(salaryRepo, employeeRepo, auditRepo, txManager, hub)
	partnerService := service.NewPartnerService(partnerRepo, auditRepo, txManager, hub)
	auditService := service.NewAuditService(auditRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, inventoryRepo)
	settingsService := service.NewSettingsService(dataRepo, auditRepo, txManager, hub, hub)

	service.Collections{
		Dashboard: dashboardService,
		Projects:  projectService,
		Budget:    budgetService,
		Expenses:  expenseService,
		Inventory: inventoryService,
		Purchases: purchaseService,
		Journal:   journalService,
		Employees: employeeService,
		Salaries:  salaryService,
		Partners:  partnerService,
		Audit:     auditService,
		Users:     userService,
		Jobs:      jobService,
	}.Register(hub)

	if err := jobService.SeedDefaultJobs(ctx); err != nil {
		zlog.Fatal("failed to seed default jobs", zap.Error(err))
	}

	movementService := service.NewMovementService(hub, inventoryRepo, projectRepo, zlog)
	if err := movementService.Start(ctx); err != nil {
		zlog.Fatal("failed to start stock movements", zap.Error(err))
	}
	defer movementService.Stop()

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(zlog))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	authenticate := middleware.Authenticate(authService)

	// WebSocket endpoint
	wsServer := websocket.NewServer(hub, zlog, cfg.CORSOrigins)
	router.GET("/ws", authenticate, wsServer.ServeWs)

	// API Routing
	public := router.Group("/api")
	api := router.Group("/api", authenticate)
	secureCookie := cfg.GinMode == gin.ReleaseMode

	handler.NewAuthHandler(authService, secureCookie).RegisterRoutes(public, api)
	handler.NewDashboardHandler(dashboardService).RegisterRoutes(api)
	handler.NewProjectHandler(projectService).RegisterRoutes(api)
	handler.NewBudgetHandler(budgetService).RegisterRoutes(api)
	handler.NewExpenseHandler(expenseService).RegisterRoutes(api)
	handler.NewInventoryHandler(inventoryService, movementService).RegisterRoutes(api)
	handler.NewPurchaseHandler(purchaseService).RegisterRoutes(api)
	handler.NewJournalHandler(journalService).RegisterRoutes(api)
	handler.NewEmployeeHandler(employeeService, salaryService).RegisterRoutes(api)
	handler.NewPartnerHandler(partnerService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewUserHandler(userService).RegisterRoutes(api)
	handler.NewJobHandler(jobService).RegisterRoutes(api)
	handler.NewSettingsHandler(settingsService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
