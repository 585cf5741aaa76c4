package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/rently/backend/internal/application/billing"
	"github.com/rently/backend/internal/domain/billing"
	"github.com/rently/backend/internal/domain/shared/valueobject"
	"github.com/rently/backend/internal/infrastructure/config"
	"github.com/rently/backend/internal/infrastructure/logger"
	"github.com/rently/backend/internal/infrastructure/persistence"
	"github.com/rently/backend/internal/interfaces/http/handler"
	"github.com/rently/backend/internal/interfaces/http/middleware"
	"github.com/rently/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting Rently Billing Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection
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

	// Billing defaults from configuration
	defaults, err := billingDefaults(cfg.Billing)
	if err != nil {
		log.Fatal("Invalid billing configuration", zap.Error(err))
	}

	// Initialize repositories
	cycleRepo := persistence.NewGormPaymentCycleRepository(db.DB)
	chargeRepo := persistence.NewGormRoomChargeRepository(db.DB)
	feeTypeRepo := persistence.NewGormFeeTypeRepository(db.DB)
	leasingSource := persistence.NewGormLeasingSource(db.DB)

	// Initialize application services
	cycleService := billingapp.NewCycleService(cycleRepo, chargeRepo, leasingSource, leasingSource, defaults, log)
	chargeService := billingapp.NewChargeService(cycleRepo, chargeRepo, feeTypeRepo, log)
	paymentService := billingapp.NewPaymentService(cycleRepo, chargeRepo, log)
	feeService := billingapp.NewFeeService(feeTypeRepo, cycleRepo, chargeRepo, log)
	rolloverService := billingapp.NewRolloverService(cycleRepo, chargeRepo, log)
	statementService := billingapp.NewStatementService(cycleRepo, chargeRepo, log)

	// Initialize handlers
	cycleHandler := handler.NewCycleHandler(cycleService, rolloverService)
	chargeHandler := handler.NewChargeHandler(chargeService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	feeTypeHandler := handler.NewFeeTypeHandler(feeService)
	statementHandler := handler.NewStatementHandler(statementService)
	systemHandler := handler.NewSystemHandler()

	// Setup gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Billing domain routes
	billingRoutes := router.NewDomainGroup("billing", "/billing")

	// Cycle routes
	billingRoutes.POST("/cycles", cycleHandler.GetOrCreate)
	billingRoutes.GET("/cycles", cycleHandler.List)
	billingRoutes.GET("/cycles/summaries", statementHandler.Summaries)
	billingRoutes.GET("/cycles/:id", cycleHandler.Get)
	billingRoutes.POST("/cycles/:id/reseed", cycleHandler.Reseed)
	billingRoutes.POST("/cycles/:id/close", cycleHandler.Close)
	billingRoutes.POST("/cycles/:id/rollforward", cycleHandler.RollForward)
	billingRoutes.GET("/cycles/:id/statements", statementHandler.CycleStatements)
	billingRoutes.GET("/cycles/:id/rooms/:room_code", chargeHandler.GetByRoom)

	// Charge routes
	billingRoutes.GET("/charges/late", statementHandler.ListLate)
	billingRoutes.GET("/charges/:id", chargeHandler.Get)
	billingRoutes.GET("/charges/:id/statement", statementHandler.ChargeStatement)
	billingRoutes.PUT("/charges/:id/meters/:kind", chargeHandler.SetMeterReading)
	billingRoutes.POST("/charges/:id/meters/:kind/confirm", chargeHandler.ConfirmMeterReading)
	billingRoutes.POST("/charges/:id/fees", chargeHandler.AddFee)
	billingRoutes.DELETE("/charges/:id/fees/:fee_id", chargeHandler.RemoveFee)
	billingRoutes.POST("/charges/:id/send", chargeHandler.MarkSent)
	billingRoutes.POST("/charges/:id/remind", chargeHandler.MarkReminderSent)
	billingRoutes.POST("/charges/:id/payments", paymentHandler.Record)
	billingRoutes.PUT("/charges/:id/payments/override", paymentHandler.Override)

	// Fee catalog routes
	billingRoutes.POST("/fee-types", feeTypeHandler.Create)
	billingRoutes.GET("/fee-types", feeTypeHandler.List)
	billingRoutes.GET("/fee-types/:id", feeTypeHandler.Get)
	billingRoutes.PUT("/fee-types/:id", feeTypeHandler.Update)
	billingRoutes.DELETE("/fee-types/:id", feeTypeHandler.Delete)
	billingRoutes.POST("/fee-types/:id/deactivate", feeTypeHandler.Deactivate)
	billingRoutes.POST("/fee-types/:id/apply", feeTypeHandler.ApplyToOpenCycles)
	billingRoutes.POST("/fee-types/:id/apply/:cycle_id", feeTypeHandler.ApplyToCycle)
	billingRoutes.POST("/fee-types/:id/remove", feeTypeHandler.RemoveFromOpenCycles)
	billingRoutes.POST("/fee-types/:id/remove/:cycle_id", feeTypeHandler.RemoveFromCycle)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(billingRoutes).
		Register(systemRoutes)
	r.Setup()

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

// billingDefaults converts the billing config section into validated domain defaults
func billingDefaults(cfg config.BillingConfig) (billing.BillingDefaults, error) {
	electricRate, err := decimal.NewFromString(cfg.ElectricRate)
	if err != nil {
		return billing.BillingDefaults{}, err
	}
	waterRate, err := decimal.NewFromString(cfg.WaterRate)
	if err != nil {
		return billing.BillingDefaults{}, err
	}
	return billing.NewBillingDefaults(electricRate, waterRate, cfg.DueDay, valueobject.Currency(cfg.Currency))
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
