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

	_ "facilityops/api/swagger" // swagger docs
	"facilityops/internal/config"
	"facilityops/internal/database"
	"facilityops/internal/handler"
	"facilityops/internal/logger"
	"facilityops/internal/middleware"
	"facilityops/internal/repository"
	"facilityops/internal/service"
	"facilityops/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const devJWTSecret = "facilityops-dev-secret"

// @title           Facility Ops Requisition API
// @version         1.0
// @description     Requisition lifecycle and approval workflow for facility operations.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	db, err := database.NewConnection(cfg.Database, zapLogger)
	if err != nil {
		return err
	}
	zapLogger.Info("database connected", zap.String("driver", cfg.Database.Driver))

	location, err := cfg.Requisition.Location()
	if err != nil {
		return err
	}

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		zapLogger.Warn("JWT_SECRET not set, using development secret")
		secret = []byte(devJWTSecret)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zapLogger)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	requisitionRepo := repository.NewRequisitionRepository(db)
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	itemRepo := repository.NewItemMasterRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	txManager := repository.NewTransactionManager(db)

	requisitionService := service.NewRequisitionService(
		requisitionRepo, propertyRepo, itemRepo, auditRepo, txManager,
		service.RequisitionConfig{
			OrderPrefix:          cfg.Requisition.OrderPrefix,
			PropertyCodeFallback: cfg.Requisition.PropertyCodeFallback,
			IdempotencyWindow:    cfg.Requisition.IdempotencyWindow,
			Location:             location,
		},
		zapLogger,
	)
	identity := service.NewIdentityResolver(userRepo)
	notificationService := service.NewNotificationService(notificationRepo, wsHub, zapLogger)
	approvalService := service.NewApprovalService(requisitionService, identity, notificationService, zapLogger)
	auditService := service.NewAuditService(auditRepo, userRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)
	catalogService := service.NewCatalogService(propertyRepo, itemRepo)
	userService := service.NewUserService(userRepo)

	// Initialize Handlers
	requisitionHandler := handler.NewRequisitionHandler(requisitionService, approvalService, identity)
	auditHandler := handler.NewAuditHandler(auditService, requisitionService, approvalService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	userHandler := handler.NewUserHandler(userService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(zapLogger), middleware.RequestLogger(zapLogger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Idempotency-Key"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	// API Routing
	api := router.Group("/api", middleware.Authenticate(secret))
	requisitionHandler.RegisterRoutes(api)
	approvalHandler.RegisterRoutes(api)
	catalogHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
