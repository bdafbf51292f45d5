package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/infrastructure/auth"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/interfaces/http/handler"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	System         *handler.SystemHandler
	Auth           *handler.AuthHandler
	Products       *handler.ProductHandler
	Suppliers      *handler.SupplierHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	SalesOrders    *handler.SalesOrderHandler
	Integrations   *handler.IntegrationHandler
	Webhooks       *handler.WebhookHandler
	Analytics      *handler.AnalyticsHandler
	Imports        *handler.ImportHandler
	Exports        *handler.ExportHandler
}

// Config configures the engine built by New
type Config struct {
	APIVersion string
	Logger     *zap.Logger

	Validator middleware.TokenValidator
	// Blacklist is optional
	Blacklist auth.TokenBlacklist
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter

	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	TrustedProxies []string

	Tracing   middleware.TracingConfig
	Metrics   middleware.HTTPMetricsConfig
	Profiling middleware.ProfilingConfig
	Swagger   middleware.SwaggerConfig

	// MetricsHandler serves /metrics; nil leaves the route unregistered
	MetricsHandler http.Handler
}

// quietPaths are polled often and not logged
var quietPaths = []string{"/health", "/ready", "/metrics"}

// New builds the gin engine with the middleware chain and every route
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	// RequestID must precede the logger, which reads the ID from the gin context
	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		logger.GinMiddleware(cfg.Logger, quietPaths...),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	engine.Use(
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.Profiling(cfg.Profiling),
	)

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator: cfg.Validator,
		Blacklist: cfg.Blacklist,
		Logger:    cfg.Logger,
	})

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
		engine.NoRoute(h.System.NoRoute)
	}
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	if h.Webhooks != nil {
		webhooks := engine.Group("/webhooks")
		webhooks.POST("/shopify", h.Webhooks.Shopify)
		webhooks.POST("/woocommerce", h.Webhooks.WooCommerce)
	}

	r := NewRouter(engine, WithAPIVersion(cfg.APIVersion))
	if h.System != nil {
		engine.GET(r.Prefix()+"/system/info", h.System.GetSystemInfo)
	}

	apiMiddleware := []gin.HandlerFunc{
		jwtAuth,
		middleware.RequireTenant(middleware.TenantMiddlewareConfig{Logger: cfg.Logger}),
		middleware.SpanEnricher(),
	}
	if cfg.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(cfg.RateLimiter))
	}
	WithMiddleware(apiMiddleware...)(r)

	r.Register(Domains(h)...)
	r.Setup()
	return engine, nil
}

// Domains builds the authenticated route groups for the handlers that are set
func Domains(h Handlers) []RouteRegistrar {
	var groups []RouteRegistrar

	if h.Auth != nil {
		groups = append(groups, NewDomainGroup("auth", "/auth").
			GET("/me", h.Auth.Me).
			POST("/logout", h.Auth.Logout))
	}

	if h.Products != nil {
		groups = append(groups, NewDomainGroup("products", "/products").
			GET("", h.Products.List).
			POST("", h.Products.Create).
			GET("/:id", h.Products.GetByID).
			PUT("/:id", h.Products.Update).
			DELETE("/:id", h.Products.Delete).
			POST("/:id/variants/:variant_id/adjust", h.Products.AdjustInventory))
	}

	if h.Suppliers != nil {
		groups = append(groups, NewDomainGroup("suppliers", "/suppliers").
			GET("", h.Suppliers.List).
			POST("", h.Suppliers.Create).
			GET("/:id", h.Suppliers.GetByID).
			PUT("/:id", h.Suppliers.Update).
			DELETE("/:id", h.Suppliers.Delete))
	}

	if h.PurchaseOrders != nil {
		groups = append(groups, NewDomainGroup("purchase-orders", "/purchase-orders").
			GET("", h.PurchaseOrders.List).
			POST("", h.PurchaseOrders.Create).
			GET("/:id", h.PurchaseOrders.GetByID).
			PUT("/:id", h.PurchaseOrders.Update).
			DELETE("/:id", h.PurchaseOrders.Delete).
			POST("/:id/submit", h.PurchaseOrders.Submit).
			POST("/:id/receive", h.PurchaseOrders.Receive).
			POST("/:id/cancel", h.PurchaseOrders.Cancel))
	}

	if h.SalesOrders != nil {
		groups = append(groups, NewDomainGroup("orders", "/orders").
			GET("", h.SalesOrders.List).
			GET("/:id", h.SalesOrders.GetByID))
	}

	if h.Integrations != nil {
		groups = append(groups, NewDomainGroup("integrations", "/integrations").
			GET("", h.Integrations.List).
			POST("", h.Integrations.Connect).
			GET("/:id", h.Integrations.GetByID).
			DELETE("/:id", h.Integrations.Delete).
			POST("/:id/test", h.Integrations.TestConnection).
			POST("/:id/sync", h.Integrations.TriggerSync).
			GET("/:id/runs", h.Integrations.ListRuns))
	}

	if h.Analytics != nil {
		groups = append(groups, NewDomainGroup("analytics", "/analytics").
			GET("/dashboard", h.Analytics.Dashboard).
			GET("/sales", h.Analytics.Sales).
			GET("/inventory", h.Analytics.Inventory).
			GET("/dead-stock", h.Analytics.DeadStock).
			GET("/reorder", h.Analytics.Reorder).
			GET("/inventory-turnover", h.Analytics.Turnover).
			GET("/supplier-performance", h.Analytics.SupplierPerformance).
			GET("/abc-analysis", h.Analytics.ABCAnalysis).
			GET("/gross-margin", h.Analytics.GrossMargin).
			GET("/demand-forecast", h.Analytics.DemandForecast).
			GET("/sales-velocity", h.Analytics.SalesVelocity).
			GET("/opportunities", h.Analytics.Opportunities).
			GET("/customers", h.Analytics.CustomerInsights).
			GET("/channel-fees", h.Analytics.ChannelFees).
			PUT("/channel-fees", h.Analytics.UpdateChannelFees).
			GET("/historical-sales", h.Analytics.HistoricalSales).
			GET("/settings", h.Analytics.GetSettings).
			PUT("/settings", h.Analytics.UpdateSettings))
	}

	if h.Imports != nil {
		groups = append(groups, NewDomainGroup("imports", "/imports").
			POST("/:entity/validate", h.Imports.Validate).
			POST("/:entity", h.Imports.Import))
	}

	if h.Exports != nil {
		groups = append(groups, NewDomainGroup("exports", "/exports").
			GET("/:entity", h.Exports.Export))
	}

	return groups
}
