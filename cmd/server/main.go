package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/opencommerce/backend/internal/application/ledger"
	"github.com/opencommerce/backend/internal/domain/shared"
	"github.com/opencommerce/backend/internal/infrastructure/auth"
	"github.com/opencommerce/backend/internal/infrastructure/cache"
	"github.com/opencommerce/backend/internal/infrastructure/config"
	"github.com/opencommerce/backend/internal/infrastructure/logger"
	"github.com/opencommerce/backend/internal/infrastructure/persistence"
	"github.com/opencommerce/backend/internal/infrastructure/storage"
	"github.com/opencommerce/backend/internal/infrastructure/telemetry"
	"github.com/opencommerce/backend/internal/interfaces/http/handler"
	"github.com/opencommerce/backend/internal/interfaces/http/middleware"
	"github.com/opencommerce/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Ledger Backend API
//	@version		1.0
//	@description	Multi-tenant financial ledger API: invoices, payments, expenses and reporting.

//	@contact.name	API Support
//	@contact.email	support@opencommerce.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Ledger Backend",
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

	// Initialize telemetry providers. When telemetry is disabled these fall
	// back to no-op implementations, so the middleware below can be wired
	// unconditionally.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingConfig := telemetry.DefaultDBTracingConfig()
		dbTracingConfig.Enabled = true
		dbTracingConfig.LogFullSQL = cfg.App.Env != "production"
		dbTracingPlugin := telemetry.NewDBTracingPlugin(dbTracingConfig, log)
		if err := dbTracingPlugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing plugin", zap.Error(err))
		}
		log.Info("Database tracing enabled")
	}

	// Idempotency store for payment deduplication. Redis when available,
	// otherwise a process-local in-memory store.
	var idemStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		if cfg.Redis.Enabled {
			redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				log.Fatal("Failed to connect to Redis", zap.Error(err))
			}
			idemStore = redisStore
			log.Info("Using Redis idempotency store",
				zap.String("host", cfg.Redis.Host),
				zap.Int("port", cfg.Redis.Port),
			)
		} else {
			idemStore = cache.NewInMemoryIdempotencyStore()
			log.Info("Using in-memory idempotency store")
		}
		defer func() {
			if err := idemStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
	}

	// Object storage for receipt documents
	var objectStorage ledgerapp.ObjectStorageService
	switch cfg.Storage.Provider {
	case "s3":
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		cancel()
		objectStorage = s3Storage
		log.Info("Using S3 receipt storage",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	default:
		objectStorage = storage.NewStubObjectStorage()
		log.Info("Using stub receipt storage")
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	expenseCategoryRepo := persistence.NewGormExpenseCategoryRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	invoiceService := ledgerapp.NewInvoiceService(invoiceRepo)
	paymentService := ledgerapp.NewPaymentService(txScope, paymentRepo, idemStore, shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}, log)
	expenseService := ledgerapp.NewExpenseService(expenseRepo, expenseCategoryRepo)
	reportingService := ledgerapp.NewReportingService(invoiceRepo, paymentRepo, expenseRepo)
	receiptService := ledgerapp.NewReceiptService(expenseRepo, objectStorage, cfg.Storage.KeyPrefix)

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	reportingHandler := handler.NewReportingHandler(reportingService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

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
	// 3. Tracing - OpenTelemetry spans per request
	// 4. Logger - Log requests
	// 5. Metrics - HTTP server metrics
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Throttle per-client request rate (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// JWT authentication and tenant resolution for API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.SkipPaths = append(tenantConfig.SkipPaths,
		"/api/v1/ping", "/api/v1/system/ping", "/api/v1/system/info")
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Ledger domain (invoices, payments, expenses, reporting, receipts)
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")

	// Invoice routes
	ledgerRoutes.POST("/invoices", invoiceHandler.Create)
	ledgerRoutes.GET("/invoices", invoiceHandler.List)
	ledgerRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	ledgerRoutes.PUT("/invoices/:id", invoiceHandler.Update)
	ledgerRoutes.POST("/invoices/:id/issue", invoiceHandler.Issue)

	// Payment routes
	ledgerRoutes.POST("/payments", paymentHandler.Record)
	ledgerRoutes.GET("/payments", paymentHandler.List)
	ledgerRoutes.GET("/payments/:id", paymentHandler.GetByID)

	// Expense category routes
	ledgerRoutes.POST("/expense-categories", expenseHandler.CreateCategory)
	ledgerRoutes.GET("/expense-categories", expenseHandler.ListCategories)
	ledgerRoutes.DELETE("/expense-categories/:id", expenseHandler.DeactivateCategory)

	// Expense routes
	ledgerRoutes.POST("/expenses", expenseHandler.Create)
	ledgerRoutes.GET("/expenses", expenseHandler.List)
	ledgerRoutes.GET("/expenses/:id", expenseHandler.GetByID)
	ledgerRoutes.PUT("/expenses/:id", expenseHandler.Update)
	ledgerRoutes.POST("/expenses/:id/approve", expenseHandler.Approve)
	ledgerRoutes.POST("/expenses/:id/reject", expenseHandler.Reject)
	ledgerRoutes.POST("/expenses/:id/pay", expenseHandler.Pay)

	// Receipt document routes
	ledgerRoutes.POST("/expenses/:id/receipt/upload-url", receiptHandler.RequestUpload)
	ledgerRoutes.POST("/expenses/:id/receipt/confirm", receiptHandler.ConfirmUpload)
	ledgerRoutes.GET("/expenses/:id/receipt", receiptHandler.DownloadURL)

	// Reporting routes
	ledgerRoutes.GET("/parties/:id/balance", reportingHandler.PartyBalance)
	ledgerRoutes.GET("/parties/:id/outstanding-invoices", reportingHandler.OutstandingInvoices)
	ledgerRoutes.GET("/reports/expense-summary", reportingHandler.ExpenseSummary)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(ledgerRoutes).
		Register(systemRoutes)

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
