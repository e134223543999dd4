package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/takeco/cmms/internal/config"
	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/handler"
	"github.com/takeco/cmms/internal/jobs"
	"github.com/takeco/cmms/internal/middleware"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting cmms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unreachable, token revocation degraded", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services, cfg)

	scheduler := jobs.NewScheduler(repos, services.Notification, zapLogger)
	if err := scheduler.Start(); err != nil {
		zapLogger.Fatal("Failed to start job scheduler", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, zapLogger, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func setupRouter(cfg *config.Config, zapLogger *zap.Logger, h *handler.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	})

	router.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)

	api := router.Group("/api")

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	// Authenticated
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.GET("/auth/profile", h.Auth.Profile)
		authed.POST("/auth/change-password", h.Auth.ChangePassword)

		authed.POST("/uploads", h.Upload.Upload)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("/public-key", h.Notification.PublicKey)
			notifications.POST("/subscribe", h.Notification.Subscribe)
			notifications.POST("/unsubscribe", h.Notification.Unsubscribe)
			notifications.POST("/test", h.Notification.Test)
		}

		companies := authed.Group("/companies")
		{
			companies.GET("", h.Company.List)
			companies.GET("/stats", middleware.RequireRole(entity.RoleAdmin), h.Company.Stats)
			companies.GET("/:id", h.Company.Get)
			companies.POST("", middleware.RequireRole(entity.RoleAdmin), h.Company.Create)
			companies.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Company.Update)
			companies.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Company.Delete)
		}

		users := authed.Group("/users")
		users.Use(middleware.RequireRole(entity.RoleAdmin))
		{
			users.GET("", h.User.List)
			users.GET("/:id", h.User.Get)
			users.POST("", h.User.Create)
			users.PUT("/:id", h.User.Update)
			users.DELETE("/:id", h.User.Delete)
		}

		machines := authed.Group("/machines")
		{
			machines.GET("", h.Machine.List)
			machines.GET("/status-summary", h.Machine.StatusSummary)
			machines.GET("/by-code/:code", h.Machine.GetByCode)
			machines.GET("/:id", h.Machine.Get)
			machines.GET("/:id/history", h.Machine.History)
			machines.GET("/:id/documents", h.Machine.ListDocuments)
			machines.POST("", middleware.RequireRole(entity.RoleAdmin), h.Machine.Create)
			machines.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Machine.Update)
			machines.PATCH("/bulk-status", middleware.RequireRole(entity.RoleTechnician), h.Machine.BulkUpdateStatus)
			machines.PATCH("/:id/status", middleware.RequireRole(entity.RoleTechnician), h.Machine.UpdateStatus)
			machines.POST("/:id/documents", middleware.RequireRole(entity.RoleTechnician), h.Machine.AddDocument)
			machines.DELETE("/:id/documents/:docId", middleware.RequireRole(entity.RoleAdmin), h.Machine.DeleteDocument)
			machines.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Machine.Delete)
		}

		parts := authed.Group("/parts")
		{
			parts.GET("", h.Part.List)
			parts.GET("/low-stock", h.Part.LowStock)
			parts.GET("/categories", h.Part.Categories)
			parts.GET("/:id", h.Part.Get)
			parts.GET("/:id/transactions", h.Inventory.ListByPart)
			parts.GET("/:id/audit", middleware.RequireRole(entity.RoleAdmin), h.Inventory.Audit)
			parts.POST("", middleware.RequireRole(entity.RoleTechnician), h.Part.Create)
			parts.PUT("/:id", middleware.RequireRole(entity.RoleTechnician), h.Part.Update)
			parts.POST("/:id/adjust", middleware.RequireRole(entity.RoleTechnician), h.Part.AdjustStock)
			parts.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Part.Delete)
		}

		inventory := authed.Group("/inventory/transactions")
		inventory.Use(middleware.RequireRole(entity.RoleTechnician))
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/summary", h.Inventory.Summary)
			inventory.GET("/audit-report", middleware.RequireRole(entity.RoleAdmin), h.Inventory.AuditReport)
			inventory.GET("/:id", h.Inventory.Get)
			inventory.POST("", h.Inventory.Create)
			inventory.PUT("/:id", h.Inventory.Update)
			inventory.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Inventory.Delete)
		}

		templates := authed.Group("/pm-templates")
		{
			templates.GET("", h.PMTemplate.List)
			templates.GET("/categories", h.PMTemplate.Categories)
			templates.GET("/:id", h.PMTemplate.Get)
			templates.POST("", middleware.RequireRole(entity.RoleAdmin), h.PMTemplate.Create)
			templates.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.PMTemplate.Update)
			templates.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.PMTemplate.Delete)
		}

		schedules := authed.Group("/pm-schedules")
		{
			schedules.GET("", h.PMSchedule.List)
			schedules.GET("/dashboard", h.PMSchedule.Dashboard)
			schedules.GET("/:id", h.PMSchedule.Get)
			schedules.POST("", middleware.RequireRole(entity.RoleAdmin), h.PMSchedule.Create)
			schedules.PUT("/:id", middleware.RequireRole(entity.RoleTechnician), h.PMSchedule.Update)
			schedules.POST("/:id/start", middleware.RequireRole(entity.RoleTechnician), h.PMSchedule.Start)
			schedules.PUT("/:id/results", middleware.RequireRole(entity.RoleTechnician), h.PMSchedule.SaveResult)
			schedules.POST("/:id/complete", middleware.RequireRole(entity.RoleTechnician), h.PMSchedule.Complete)
			schedules.POST("/:id/assign", middleware.RequireRole(entity.RoleAdmin), h.PMSchedule.Assign)
			schedules.DELETE("/:id/assign/:userId", middleware.RequireRole(entity.RoleAdmin), h.PMSchedule.Unassign)
			schedules.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.PMSchedule.Delete)
		}

		history := authed.Group("/history")
		{
			history.GET("/stats", h.History.Stats)
			history.GET("/machines", h.History.Machines)
			history.GET("/technicians", h.History.Technicians)
		}

		repairs := authed.Group("/repairs")
		{
			repairs.GET("", h.Repair.List)
			repairs.GET("/status-summary", h.Repair.StatusSummary)
			repairs.GET("/:id", h.Repair.Get)
			repairs.GET("/:id/parts", h.Repair.ListParts)
			repairs.POST("", h.Repair.Create)
			repairs.PUT("/:id", middleware.RequireRole(entity.RoleTechnician), h.Repair.Update)
			repairs.POST("/:id/start", middleware.RequireRole(entity.RoleTechnician), h.Repair.Start)
			repairs.POST("/:id/cancel", middleware.RequireRole(entity.RoleTechnician), h.Repair.Cancel)
			repairs.POST("/:id/complete", middleware.RequireRole(entity.RoleTechnician), h.Repair.Complete)
			repairs.POST("/:id/items", middleware.RequireRole(entity.RoleTechnician), h.Repair.AddItem)
			repairs.PUT("/:id/items/:itemId", middleware.RequireRole(entity.RoleTechnician), h.Repair.UpdateItem)
			repairs.DELETE("/:id/items/:itemId", middleware.RequireRole(entity.RoleTechnician), h.Repair.DeleteItem)
			repairs.POST("/:id/photos", middleware.RequireRole(entity.RoleTechnician), h.Repair.AddPhoto)
			repairs.DELETE("/:id/photos/:photoId", middleware.RequireRole(entity.RoleTechnician), h.Repair.DeletePhoto)
			repairs.POST("/:id/parts", middleware.RequireRole(entity.RoleTechnician), h.Repair.ConsumePart)
			repairs.POST("/:id/assign", middleware.RequireRole(entity.RoleAdmin), h.Repair.Assign)
			repairs.DELETE("/:id/assign/:userId", middleware.RequireRole(entity.RoleAdmin), h.Repair.Unassign)
			repairs.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Repair.Delete)
		}
	}

	return router
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
