package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	_ "github.com/stockpilot/backend/docs"
	catalogapp "github.com/stockpilot/backend/internal/application/catalog"
	importapp "github.com/stockpilot/backend/internal/application/import"
	integrationapp "github.com/stockpilot/backend/internal/application/integration"
	partnerapp "github.com/stockpilot/backend/internal/application/partner"
	reportapp "github.com/stockpilot/backend/internal/application/report"
	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/auth"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"github.com/stockpilot/backend/internal/infrastructure/ecommerce"
	csvimport "github.com/stockpilot/backend/internal/infrastructure/import"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/migration"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
	"github.com/stockpilot/backend/internal/infrastructure/scheduler"
	"github.com/stockpilot/backend/internal/infrastructure/storage"
	"github.com/stockpilot/backend/internal/infrastructure/telemetry"
	"github.com/stockpilot/backend/internal/infrastructure/vault"
	"github.com/stockpilot/backend/internal/infrastructure/webhook"
	"github.com/stockpilot/backend/internal/interfaces/http/handler"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
	"github.com/stockpilot/backend/internal/interfaces/http/router"
)

//	@title			StockPilot API
//	@version		1.0
//	@description	Multi-tenant inventory management with Shopify, WooCommerce and Amazon FBA sync.

//	@contact.name	StockPilot API Support

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// OTLP log export needs a logger of its own, so the final logger is built after it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		if log, err = logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting StockPilot",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	if cfg.Database.MigrateOnStart {
		if err := migrateUp(cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	stores, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to initialize caches", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing caches", zap.Error(err))
		}
	}()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client)
	}

	credentialVault, err := vault.New(ctx, cfg.Vault, db.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize credential vault", zap.Error(err))
	}

	// archiving is optional; exports still stream without a bucket
	var archive importapp.ArchiveStore
	if cfg.Storage.Bucket != "" {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize export archive", zap.Error(err))
		}
		archive = s3Archive
	}

	registry := telemetry.NewRegistry()
	syncMetrics, err := telemetry.NewSyncMetrics(registry)
	if err != nil {
		log.Fatal("Failed to register sync metrics", zap.Error(err))
	}
	registry.MustRegister(telemetry.NewStockCollector(db.DB, log))

	// Repositories
	tx := persistence.NewGormTransactor(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	syncRunRepo := persistence.NewGormSyncRunRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	salesReportRepo := persistence.NewGormSalesReportRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Platform sync
	connectors := ecommerce.NewRegistry(ecommerce.OptionsFromConfig(cfg.Sync, log), stores.Tokens)
	writer := integrationapp.NewPlatformWriter(productRepo, variantRepo, salesOrderRepo)
	syncService := integrationapp.NewSyncService(integrationRepo, syncRunRepo, credentialVault, connectors, writer, log,
		integrationapp.WithRetryPolicy(integrationapp.RetryPolicy{MaxRetries: cfg.Sync.MaxRetries, BaseDelay: cfg.Sync.BaseDelay}),
		integrationapp.WithSyncMetrics(syncMetrics),
	)
	runner := telemetry.NewProfiledSyncRunner(syncService, func(ctx context.Context, job integration.SyncJob) string {
		in, err := integrationRepo.FindByID(ctx, job.IntegrationID)
		if err != nil {
			return ""
		}
		return string(in.Platform)
	})

	dispatcher, err := scheduler.NewSyncDispatcher(scheduler.DispatcherConfigFrom(cfg.Sync), runner, log,
		scheduler.WithMetrics(syncMetrics))
	if err != nil {
		log.Fatal("Invalid sync dispatcher configuration", zap.Error(err))
	}
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal("Failed to start sync dispatcher", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := dispatcher.Stop(stopCtx); err != nil {
			log.Error("Error stopping sync dispatcher", zap.Error(err))
		}
	}()

	if cfg.Sync.Enabled {
		trigger, err := scheduler.NewSyncCronTrigger(integrationRepo, dispatcher, cfg.Sync.CronInterval, log)
		if err != nil {
			log.Fatal("Invalid sync schedule", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync schedule", zap.Error(err))
		}
		defer trigger.Stop()
		log.Info("Scheduled sync enabled", zap.Duration("interval", cfg.Sync.CronInterval))
	}

	// Application services
	productService := catalogapp.NewProductService(productRepo, variantRepo, supplierRepo)
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	purchaseOrderService := tradeapp.NewPurchaseOrderService(purchaseOrderRepo, supplierRepo, variantRepo, tx)
	salesOrderService := tradeapp.NewSalesOrderService(salesOrderRepo)
	integrationService := integrationapp.NewIntegrationService(integrationRepo, syncRunRepo, credentialVault, connectors, connectors, dispatcher)
	webhookService := integrationapp.NewWebhookService(
		webhook.NewVerifier(cfg.Webhook.ReplayWindow),
		integrationRepo, credentialVault, stores.Seen, webhookEventRepo, connectors, writer, connectors,
		integrationapp.WithSeenTTL(cfg.Webhook.SeenTTL),
		integrationapp.WithWebhookMetrics(syncMetrics),
	)
	analyticsService := reportapp.NewAnalyticsService(salesReportRepo, settingsRepo, productRepo, variantRepo, supplierRepo,
		reportapp.WithDefaults(cfg.Analytics.DefaultPeriod, cfg.Analytics.DeadStockDays))

	processor := csvimport.NewProcessor(csvimport.WithMaxFileSize(cfg.HTTP.MaxUploadSize))
	productImport := importapp.NewProductImportService(productRepo, variantRepo, tx, processor)
	supplierImport := importapp.NewSupplierImportService(supplierRepo, tx, processor)
	exportService := importapp.NewExportService(productRepo, supplierRepo, salesOrderRepo, archive)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.RegisterValidators()

	checks := []handler.ReadinessCheck{{Name: "database", Ping: db.Ping}}
	if stores.Client != nil {
		checks = append(checks, handler.ReadinessCheck{
			Name:     "redis",
			Optional: true,
			Ping:     func(ctx context.Context) error { return stores.Client.Ping(ctx).Err() },
		})
	}

	webhookHandler := handler.NewWebhookHandler(webhookService)
	webhookHandler.SetMaxBodySize(cfg.Webhook.MaxBodySize)

	handlers := router.Handlers{
		System:         handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env, checks...),
		Auth:           handler.NewAuthHandler(blacklist),
		Products:       handler.NewProductHandler(productService),
		Suppliers:      handler.NewSupplierHandler(supplierService),
		PurchaseOrders: handler.NewPurchaseOrderHandler(purchaseOrderService),
		SalesOrders:    handler.NewSalesOrderHandler(salesOrderService),
		Integrations:   handler.NewIntegrationHandler(integrationService),
		Webhooks:       webhookHandler,
		Analytics:      handler.NewAnalyticsHandler(analyticsService),
		Imports:        handler.NewImportHandler(productImport, supplierImport),
		Exports:        handler.NewExportHandler(exportService),
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Close()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()

	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = profiler.IsEnabled()

	// uploads go through the global body limit before the import handler sees them
	maxBody := cfg.HTTP.MaxBodySize
	if cfg.HTTP.MaxUploadSize+(1<<20) > maxBody {
		maxBody = cfg.HTTP.MaxUploadSize + 1<<20
	}

	engine, err := router.New(router.Config{
		Logger:         log,
		Validator:      auth.NewJWTService(cfg.JWT),
		Blacklist:      blacklist,
		RateLimiter:    rateLimiter,
		CORS:           cors,
		Security:       security,
		MaxBodySize:    maxBody,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
			Logger:        log,
		},
		Profiling: profiling,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		MetricsHandler: telemetry.Handler(registry),
	}, handlers)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateUp applies pending migrations on a short-lived connection; the
// migrate driver closes the pool it is given.
func migrateUp(cfg config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, cfg.MigrationsPath, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
