package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// MockPurchaseOrderService implements PurchaseOrderService for testing
type MockPurchaseOrderService struct {
	mock.Mock
}

func (m *MockPurchaseOrderService) order(args mock.Arguments) (*tradeapp.PurchaseOrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderResponse), args.Error(1)
}

func (m *MockPurchaseOrderService) Create(ctx context.Context, tenantID uuid.UUID, req tradeapp.CreatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, req))
}

func (m *MockPurchaseOrderService) GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID))
}

func (m *MockPurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.PurchaseOrderListFilter) (shared.Paginated[tradeapp.PurchaseOrderResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[tradeapp.PurchaseOrderResponse]), args.Error(1)
}

func (m *MockPurchaseOrderService) Update(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.UpdatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID, req))
}

func (m *MockPurchaseOrderService) Delete(ctx context.Context, tenantID, orderID uuid.UUID) error {
	return m.Called(ctx, tenantID, orderID).Error(0)
}

func (m *MockPurchaseOrderService) Submit(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID))
}

func (m *MockPurchaseOrderService) Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID))
}

func (m *MockPurchaseOrderService) Receive(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.ReceivePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error) {
	return m.order(m.Called(ctx, tenantID, orderID, req))
}

func purchaseOrderRouter(tenantID uuid.UUID, svc PurchaseOrderService) *gin.Engine {
	h := NewPurchaseOrderHandler(svc)
	r := tenantRouter(tenantID)
	r.POST("/purchase-orders", h.Create)
	r.GET("/purchase-orders", h.List)
	r.GET("/purchase-orders/:id", h.GetByID)
	r.PUT("/purchase-orders/:id", h.Update)
	r.DELETE("/purchase-orders/:id", h.Delete)
	r.POST("/purchase-orders/:id/submit", h.Submit)
	r.POST("/purchase-orders/:id/cancel", h.Cancel)
	r.POST("/purchase-orders/:id/receive", h.Receive)
	return r
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	tenantID, supplierID, variantID := uuid.New(), uuid.New(), uuid.New()
	svc := new(MockPurchaseOrderService)
	svc.On("Create", mock.Anything, tenantID, mock.MatchedBy(func(r tradeapp.CreatePurchaseOrderRequest) bool {
		return r.SupplierID == supplierID && len(r.Items) == 1 && r.Items[0].Quantity == 24
	})).Return(&tradeapp.PurchaseOrderResponse{ID: uuid.New(), Status: "draft", Number: "PO-0001"}, nil)

	body := map[string]any{
		"supplier_id": supplierID,
		"items":       []map[string]any{{"variant_id": variantID, "quantity": 24, "unit_cost": "4.50"}},
	}
	w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodPost, "/purchase-orders", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decodeData[tradeapp.PurchaseOrderResponse](t, w)
	assert.Equal(t, "draft", got.Status)
	svc.AssertExpectations(t)
}

func TestPurchaseOrderHandler_Create_RequiresSupplier(t *testing.T) {
	svc := new(MockPurchaseOrderService)

	w := doJSON(t, purchaseOrderRouter(uuid.New(), svc), http.MethodPost, "/purchase-orders", `{"notes":"rush"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseOrderHandler_List(t *testing.T) {
	tenantID, supplierID := uuid.New(), uuid.New()

	t.Run("filters by supplier", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		svc.On("List", mock.Anything, tenantID, mock.MatchedBy(func(f tradeapp.PurchaseOrderListFilter) bool {
			return f.SupplierID != nil && *f.SupplierID == supplierID && f.Status == "ordered"
		})).Return(shared.Paginated[tradeapp.PurchaseOrderResponse]{Page: 1, PageSize: 20}, nil)

		w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodGet,
			"/purchase-orders?status=ordered&supplier_id="+supplierID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("invalid supplier id", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)

		w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodGet, "/purchase-orders?supplier_id=abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)

		w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodGet, "/purchase-orders?status=lost", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseOrderHandler_Transitions(t *testing.T) {
	tenantID, orderID := uuid.New(), uuid.New()
	invalidState := shared.NewDomainError("INVALID_STATE", "Only draft orders can be submitted")

	tests := []struct {
		name     string
		path     string
		body     any
		setup    func(*MockPurchaseOrderService)
		wantCode int
		wantErr  string
	}{
		{
			name: "submit draft",
			path: "/submit",
			setup: func(m *MockPurchaseOrderService) {
				m.On("Submit", mock.Anything, tenantID, orderID).
					Return(&tradeapp.PurchaseOrderResponse{ID: orderID, Status: "ordered"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "submit twice",
			path: "/submit",
			setup: func(m *MockPurchaseOrderService) {
				m.On("Submit", mock.Anything, tenantID, orderID).Return(nil, invalidState)
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  dto.ErrCodeInvalidState,
		},
		{
			name: "cancel",
			path: "/cancel",
			setup: func(m *MockPurchaseOrderService) {
				m.On("Cancel", mock.Anything, tenantID, orderID).
					Return(&tradeapp.PurchaseOrderResponse{ID: orderID, Status: "cancelled"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "receive lines",
			path: "/receive",
			body: map[string]any{"lines": []map[string]any{{"item_id": uuid.New(), "quantity": 5}}},
			setup: func(m *MockPurchaseOrderService) {
				m.On("Receive", mock.Anything, tenantID, orderID, mock.MatchedBy(func(r tradeapp.ReceivePurchaseOrderRequest) bool {
					return len(r.Lines) == 1 && r.Lines[0].Quantity == 5
				})).Return(&tradeapp.PurchaseOrderResponse{ID: orderID, Status: "partially_received"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "receive without lines",
			path:     "/receive",
			body:     `{"lines":[]}`,
			setup:    func(*MockPurchaseOrderService) {},
			wantCode: http.StatusBadRequest,
			wantErr:  dto.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPurchaseOrderService)
			tt.setup(svc)

			w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodPost,
				"/purchase-orders/"+orderID.String()+tt.path, tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorCode(t, w))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPurchaseOrderHandler_Delete(t *testing.T) {
	tenantID, orderID := uuid.New(), uuid.New()
	svc := new(MockPurchaseOrderService)
	svc.On("Delete", mock.Anything, tenantID, orderID).Return(nil)

	w := doJSON(t, purchaseOrderRouter(tenantID, svc), http.MethodDelete, "/purchase-orders/"+orderID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}
