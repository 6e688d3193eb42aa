package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	stockapp "github.com/stockledger/backend/internal/application/stock"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stockledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Stock Ledger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	holderRepo := persistence.NewGormHolderRepository(db.DB)
	entryRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	compositionRepo := persistence.NewGormCompositionRepository(db.DB)

	// Transaction scope pairing holder updates with ledger entry inserts
	txScope := persistence.NewGormStockTransactionScope(db.DB)

	// Initialize application services
	holderService := stockapp.NewHolderService(txScope, holderRepo, compositionRepo, log)
	ledgerService := stockapp.NewLedgerService(txScope, cfg.Ledger.MaxConflictRetries, log)
	queryService := stockapp.NewLedgerQueryService(holderRepo, entryRepo)

	// Initialize HTTP handlers
	partHandler := handler.NewPartHandler(holderService, ledgerService, queryService)
	productHandler := handler.NewProductHandler(holderService, ledgerService, queryService)
	ledgerHandler := handler.NewLedgerHandler(queryService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Stock domain (parts, products, the shared ledger)
	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "stock service ready"})
	})

	// Part routes
	stockRoutes.POST("/parts", partHandler.Create)
	stockRoutes.GET("/parts", partHandler.List)
	stockRoutes.GET("/parts/:id", partHandler.GetByID)
	stockRoutes.PUT("/parts/:id", partHandler.Update)
	stockRoutes.DELETE("/parts/:id", partHandler.Delete)
	stockRoutes.POST("/parts/:id/increase", partHandler.Increase)
	stockRoutes.POST("/parts/:id/decrease", partHandler.Decrease)
	stockRoutes.POST("/parts/:id/adjust", partHandler.Adjust)
	stockRoutes.GET("/parts/:id/ledger", partHandler.Ledger)
	stockRoutes.GET("/parts/:id/used-by", partHandler.UsedBy)

	// Product routes
	stockRoutes.POST("/products", productHandler.Create)
	stockRoutes.GET("/products", productHandler.List)
	stockRoutes.GET("/products/:id", productHandler.GetByID)
	stockRoutes.PUT("/products/:id", productHandler.Update)
	stockRoutes.DELETE("/products/:id", productHandler.Delete)
	stockRoutes.POST("/products/:id/increase", productHandler.Increase)
	stockRoutes.POST("/products/:id/decrease", productHandler.Decrease)
	stockRoutes.POST("/products/:id/adjust", productHandler.Adjust)
	stockRoutes.POST("/products/:id/produce", productHandler.Produce)
	stockRoutes.POST("/products/:id/cancel-delivery", productHandler.CancelDelivery)
	stockRoutes.GET("/products/:id/ledger", productHandler.Ledger)
	stockRoutes.GET("/products/:id/parts", productHandler.Parts)
	stockRoutes.GET("/products/:id/parts-required", productHandler.PartsRequired)

	// Cross-holder ledger history
	stockRoutes.GET("/ledger", ledgerHandler.List)

	r.Register(stockRoutes)

	// System routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
