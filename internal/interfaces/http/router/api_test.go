package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/stockpilot/backend/internal/application/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/auth"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"github.com/stockpilot/backend/internal/interfaces/http/handler"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// productStub answers List with the tenant it was asked for
type productStub struct {
	handler.ProductService
}

func (productStub) List(_ context.Context, tenantID uuid.UUID, _ catalogapp.ProductListFilter) (shared.Paginated[catalogapp.ProductResponse], error) {
	return shared.Paginated[catalogapp.ProductResponse]{
		Items: []catalogapp.ProductResponse{{TenantID: tenantID, Title: "Canvas Tote"}},
		Total: 1, Page: 1, PageSize: 20,
	}, nil
}

type testAPI struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newTestAPI(t *testing.T, mutate func(*Config)) *testAPI {
	t.Helper()
	middleware.RegisterValidators()
	jwtSvc := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-at-least-32-chars"})
	cfg := Config{
		Validator: jwtSvc,
		Blacklist: auth.NewInMemoryTokenBlacklist(),
		CORS:      middleware.DefaultCORSConfig(),
		Security:  middleware.DefaultSecurityConfig(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := New(cfg, Handlers{
		System:   handler.NewSystemHandler("StockPilot API", "test", "test"),
		Auth:     handler.NewAuthHandler(cfg.Blacklist),
		Products: handler.NewProductHandler(productStub{}),
	})
	require.NoError(t, err)
	return &testAPI{engine: engine, jwt: jwtSvc}
}

func (a *testAPI) token(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()
	token, _, err := a.jwt.Issue(auth.IssueInput{UserID: uuid.New(), TenantID: tenantID, TTL: time.Hour})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func TestNew_PublicRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"health", "/health", http.StatusOK},
		{"ready", "/ready", http.StatusOK},
		{"system info", "/api/v1/system/info", http.StatusOK},
		{"swagger disabled", "/swagger/index.html", http.StatusNotFound},
		{"unknown route", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNew_APIRequiresToken(t *testing.T) {
	api := newTestAPI(t, nil)
	tenantID := uuid.New()

	w := api.do(http.MethodGet, "/api/v1/products", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/v1/products", api.token(t, tenantID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data []catalogapp.ProductResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, tenantID, resp.Data[0].TenantID)
}

func TestNew_LogoutRevokesToken(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, uuid.New())

	w := api.do(http.MethodPost, "/api/v1/auth/logout", token)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/products", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
}

func TestNew_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	api := newTestAPI(t, func(c *Config) { c.RateLimiter = limiter })
	token := api.token(t, uuid.New())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/products", token).Code)
	}
	w := api.do(http.MethodGet, "/api/v1/products", token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health checks are outside the API group
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "").Code)
}

func TestNew_BodyLimit(t *testing.T) {
	api := newTestAPI(t, func(c *Config) { c.MaxBodySize = 8 })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", http.NoBody)
	req.ContentLength = 1024
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNew_MetricsHandler(t *testing.T) {
	api := newTestAPI(t, func(c *Config) {
		c.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("stockpilot_sync_runs_total 0\n"))
		})
	})

	w := api.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stockpilot_sync_runs_total")
}

func TestDomains_RouteTable(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(Domains(Handlers{
		Auth:           handler.NewAuthHandler(nil),
		Products:       handler.NewProductHandler(nil),
		Suppliers:      handler.NewSupplierHandler(nil),
		PurchaseOrders: handler.NewPurchaseOrderHandler(nil),
		SalesOrders:    handler.NewSalesOrderHandler(nil),
		Integrations:   handler.NewIntegrationHandler(nil),
		Analytics:      handler.NewAnalyticsHandler(nil),
		Imports:        handler.NewImportHandler(nil, nil),
		Exports:        handler.NewExportHandler(nil),
	})...).Setup()

	var got []string
	for _, ri := range engine.Routes() {
		got = append(got, ri.Method+" "+ri.Path)
	}
	sort.Strings(got)

	for _, want := range []string{
		"GET /api/v1/products",
		"POST /api/v1/products/:id/variants/:variant_id/adjust",
		"POST /api/v1/purchase-orders/:id/receive",
		"GET /api/v1/orders/:id",
		"POST /api/v1/integrations/:id/sync",
		"GET /api/v1/integrations/:id/runs",
		"GET /api/v1/analytics/inventory-turnover",
		"PUT /api/v1/analytics/settings",
		"GET /api/v1/analytics/demand-forecast",
		"PUT /api/v1/analytics/channel-fees",
		"GET /api/v1/analytics/historical-sales",
		"POST /api/v1/imports/:entity/validate",
		"GET /api/v1/exports/:entity",
		"POST /api/v1/auth/logout",
	} {
		assert.Contains(t, got, want)
	}
}
