package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// MockSalesOrderService implements SalesOrderService for testing
type MockSalesOrderService struct {
	mock.Mock
}

func (m *MockSalesOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockSalesOrderService) List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.SalesOrderListFilter) (shared.Paginated[tradeapp.SalesOrderResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[tradeapp.SalesOrderResponse]), args.Error(1)
}

func salesOrderRouter(tenantID uuid.UUID, svc SalesOrderService) *gin.Engine {
	h := NewSalesOrderHandler(svc)
	r := tenantRouter(tenantID)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.GetByID)
	return r
}

func TestSalesOrderHandler_List(t *testing.T) {
	tenantID := uuid.New()
	svc := new(MockSalesOrderService)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc.On("List", mock.Anything, tenantID, mock.MatchedBy(func(f tradeapp.SalesOrderListFilter) bool {
		return f.Query == "#1001" && f.Limit == 5 && f.SourcePlatform == "SHOPIFY" &&
			f.From != nil && f.From.Equal(from)
	})).Return(shared.Paginated[tradeapp.SalesOrderResponse]{
		Items: []tradeapp.SalesOrderResponse{{OrderNumber: "#1001"}}, Total: 1, Page: 1, PageSize: 5,
	}, nil)

	w := doJSON(t, salesOrderRouter(tenantID, svc), http.MethodGet,
		"/orders?query=%231001&limit=5&source_platform=SHOPIFY&from=2026-09-01", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 5, env.Meta.PageSize)
	svc.AssertExpectations(t)
}

func TestSalesOrderHandler_GetByID_OtherTenantIsNotFound(t *testing.T) {
	tenantID, orderID := uuid.New(), uuid.New()
	svc := new(MockSalesOrderService)
	svc.On("GetByID", mock.Anything, tenantID, orderID).Return(nil, shared.ErrNotFound)

	w := doJSON(t, salesOrderRouter(tenantID, svc), http.MethodGet, "/orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
