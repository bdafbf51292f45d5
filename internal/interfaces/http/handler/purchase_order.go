package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// PurchaseOrderService is the purchasing use-case surface the handler needs
type PurchaseOrderService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req tradeapp.CreatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
	GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.PurchaseOrderListFilter) (shared.Paginated[tradeapp.PurchaseOrderResponse], error)
	Update(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.UpdatePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
	Delete(ctx context.Context, tenantID, orderID uuid.UUID) error
	Submit(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	Cancel(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	Receive(ctx context.Context, tenantID, orderID uuid.UUID, req tradeapp.ReceivePurchaseOrderRequest) (*tradeapp.PurchaseOrderResponse, error)
}

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// Create godoc
// @Summary      Create a draft purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreatePurchaseOrderRequest true "Purchase order"
// @Success      201 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req tradeapp.CreatePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID godoc
// @Summary      Get a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
		return h.orderService.GetByID(ctx, tenantID, id)
	})
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        supplier_id query string false "Supplier ID" format(uuid)
// @Param        search query string false "Order number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]tradeapp.PurchaseOrderResponse]
// @Security     BearerAuth
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter tradeapp.PurchaseOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if raw := c.Query("supplier_id"); raw != "" {
		supplierID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid supplier_id format")
			return
		}
		filter.SupplierID = &supplierID
	}

	page, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Update godoc
// @Summary      Update a draft purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body tradeapp.UpdatePurchaseOrderRequest true "Changes"
// @Success      200 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	var req tradeapp.UpdatePurchaseOrderRequest
	h.withOrder(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
		return h.orderService.Update(ctx, tenantID, id, req)
	}, &req)
}

// Delete godoc
// @Summary      Delete a draft purchase order
// @Tags         purchase-orders
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      204
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit godoc
// @Summary      Submit a draft purchase order to the supplier
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
		return h.orderService.Submit(ctx, tenantID, id)
	})
}

// Cancel godoc
// @Summary      Cancel a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.withOrder(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
		return h.orderService.Cancel(ctx, tenantID, id)
	})
}

// Receive godoc
// @Summary      Receive goods against a purchase order
// @Description  Received quantities are added to variant stock
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body tradeapp.ReceivePurchaseOrderRequest true "Received lines"
// @Success      200 {object} APIResponse[tradeapp.PurchaseOrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	var req tradeapp.ReceivePurchaseOrderRequest
	h.withOrder(c, func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
		return h.orderService.Receive(ctx, tenantID, id, req)
	}, &req)
}

// withOrder resolves tenant and order ID, binds body when given, runs op and
// writes the resulting order
func (h *PurchaseOrderHandler) withOrder(
	c *gin.Context,
	op func(ctx context.Context, tenantID, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error),
	body ...any,
) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	for _, b := range body {
		if !h.bindJSON(c, b) {
			return
		}
	}

	order, err := op(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
