package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	billingapp "github.com/waterworks/backend/internal/application/billing"
	notifapp "github.com/waterworks/backend/internal/application/notification"
	"github.com/waterworks/backend/internal/domain/billing"
	"github.com/waterworks/backend/internal/domain/shared/valueobject"
	"github.com/waterworks/backend/internal/infrastructure/cache"
	"github.com/waterworks/backend/internal/infrastructure/config"
	"github.com/waterworks/backend/internal/infrastructure/logger"
	"github.com/waterworks/backend/internal/infrastructure/notify"
	"github.com/waterworks/backend/internal/infrastructure/persistence"
	"github.com/waterworks/backend/internal/infrastructure/scheduler"
	"github.com/waterworks/backend/internal/infrastructure/telemetry"
	"github.com/waterworks/backend/internal/interfaces/http/handler"
	"github.com/waterworks/backend/internal/interfaces/http/middleware"
	"github.com/waterworks/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting waterworks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	idemStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer idemStore.Close()

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	feeRepo := persistence.NewGormCalibrationFeeRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	meterReadingRepo := persistence.NewGormMeterReadingRepository(db.DB)
	notifRepo := persistence.NewGormNotificationRepository(db.DB)
	txScope := persistence.NewGormBillingTransactionScope(db.DB)

	// Telemetry
	ctx := context.Background()
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer meterProvider.Shutdown(ctx)

	billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:          meterProvider.Meter("waterworks.billing"),
		Logger:         log,
		LedgerProvider: &ledgerMetricsAdapter{invoiceRepo: invoiceRepo},
	})
	if err != nil {
		log.Fatal("Failed to initialize billing metrics", zap.Error(err))
	}
	if cfg.Telemetry.Enabled {
		billingMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
		defer billingMetrics.Stop()
	}

	// Notification collaborators
	renderer := notify.NewStaticRenderer()
	dispatcher := notify.NewLogDispatcher(log)

	// Application services
	feeBindingService := billingapp.NewFeeBindingService(billingapp.FeeBindingServiceConfig{
		InvoiceRepo: invoiceRepo,
		FeeRepo:     feeRepo,
		NotifRepo:   notifRepo,
		Renderer:    renderer,
		Tx:          txScope,
		Metrics:     billingMetrics,
		Logger:      log,
		VATRate:     decimal.NewFromFloat(cfg.Billing.VATRate),
		DueDays:     cfg.Billing.DueDays,
	})
	invoiceQueryService := billingapp.NewInvoiceQueryService(billingapp.InvoiceQueryServiceConfig{
		InvoiceRepo: invoiceRepo,
		Logger:      log,
	})
	settlementService := billingapp.NewSettlementService(billingapp.SettlementServiceConfig{
		InvoiceRepo: invoiceRepo,
		ReceiptRepo: receiptRepo,
		NotifRepo:   notifRepo,
		Renderer:    renderer,
		Tx:          txScope,
		Idempotency: idemStore,
		IdemTTL:     cfg.Billing.WebhookIdemTTL,
		Metrics:     billingMetrics,
		Logger:      log,
	})
	lateFeeService := billingapp.NewLateFeeService(billingapp.LateFeeServiceConfig{
		InvoiceRepo: invoiceRepo,
		NotifRepo:   notifRepo,
		Renderer:    renderer,
		Metrics:     billingMetrics,
		Logger:      log,
		Penalty:     valueobject.NewMoneyVNDFromInt(cfg.Billing.LateFeeAmount),
	})
	reminderService := notifapp.NewReminderService(notifapp.ReminderServiceConfig{
		InvoiceRepo:  invoiceRepo,
		ContractRepo: contractRepo,
		NotifRepo:    notifRepo,
		Renderer:     renderer,
		Metrics:      billingMetrics,
		Logger:       log,
		ReminderDays: cfg.Billing.ReminderDays,
		ExpiryDays:   cfg.Billing.ContractExpiry,
	})
	leakService := notifapp.NewLeakDetectionService(notifapp.LeakDetectionServiceConfig{
		InvoiceRepo: invoiceRepo,
		ReadingRepo: meterReadingRepo,
		NotifRepo:   notifRepo,
		Renderer:    renderer,
		Metrics:     billingMetrics,
		Logger:      log,
		Threshold:   decimal.NewFromFloat(cfg.Billing.LeakThreshold),
	})
	feedService := notifapp.NewFeedService(notifapp.FeedServiceConfig{
		NotifRepo: notifRepo,
		Logger:    log,
	})
	dispatchService := notifapp.NewDispatchService(notifapp.DispatchServiceConfig{
		NotifRepo:  notifRepo,
		Dispatcher: dispatcher,
		Metrics:    billingMetrics,
		Logger:     log,
		BatchSize:  cfg.Billing.DispatchBatch,
	})

	// Daily batches plus the notification dispatch loop
	daily := scheduler.NewDailyScheduler(scheduler.Config{
		Enabled:       cfg.Scheduler.Enabled,
		DailyHour:     cfg.Scheduler.DailyHour,
		CheckInterval: time.Minute,
		JobTimeout:    cfg.Scheduler.JobTimeout,
	}, log)
	daily.Register(scheduler.Job{
		Name: "late-fee-batch",
		Run: func(ctx context.Context) error {
			_, err := lateFeeService.RunLateFeeBatch(ctx)
			return err
		},
	})
	daily.Register(scheduler.Job{
		Name: "payment-reminders",
		Run: func(ctx context.Context) error {
			_, err := reminderService.RunPaymentReminderPass(ctx)
			return err
		},
	})
	daily.Register(scheduler.Job{
		Name: "contract-expiry-reminders",
		Run: func(ctx context.Context) error {
			_, err := reminderService.RunContractExpiryPass(ctx)
			return err
		},
	})
	if err := daily.Start(ctx); err != nil {
		log.Fatal("Failed to start daily scheduler", zap.Error(err))
	}
	defer daily.Stop(ctx)

	dispatchRunner := scheduler.NewIntervalRunner("notification-dispatch", cfg.Billing.DispatchInterval,
		func(ctx context.Context) error {
			_, err := dispatchService.DispatchPending(ctx)
			return err
		}, log)
	if err := dispatchRunner.Start(ctx); err != nil {
		log.Fatal("Failed to start dispatch runner", zap.Error(err))
	}
	defer dispatchRunner.Stop(ctx)

	// HTTP handlers
	middleware.SetupValidator()
	billingHandler := handler.NewBillingHandler(feeBindingService, invoiceQueryService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	notificationHandler := handler.NewNotificationHandler(feedService)
	webhookHandler := handler.NewBankWebhookHandler(settlementService, log,
		handler.WithWebhookSecret(cfg.Webhook.Secret))
	jobsHandler := handler.NewJobsHandler(lateFeeService, reminderService, leakService)
	systemHandler := handler.NewSystemHandler()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	engine.GET("/healthz", healthHandler(db))

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(billingHandler).
		Register(settlementHandler).
		Register(notificationHandler).
		Register(webhookHandler).
		Register(jobsHandler).
		Register(systemHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// healthHandler reports liveness including a database ping
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ledgerMetricsAdapter feeds invoice ledger aggregates to the periodic
// telemetry collector.
type ledgerMetricsAdapter struct {
	invoiceRepo *persistence.GormInvoiceRepository
}

func (a *ledgerMetricsAdapter) GetOutstandingAmount(ctx context.Context) (decimal.Decimal, error) {
	return a.invoiceRepo.SumOutstanding(ctx)
}

func (a *ledgerMetricsAdapter) GetOverdueCount(ctx context.Context) (int64, error) {
	return a.invoiceRepo.CountByStatus(ctx, billing.InvoiceStatusOverdue)
}
