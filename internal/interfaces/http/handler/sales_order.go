package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/stockpilot/backend/internal/application/trade"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// SalesOrderService reads orders imported from the connected platforms
type SalesOrderService interface {
	GetByID(ctx context.Context, tenantID, orderID uuid.UUID) (*tradeapp.SalesOrderResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter tradeapp.SalesOrderListFilter) (shared.Paginated[tradeapp.SalesOrderResponse], error)
}

// SalesOrderHandler handles the read-only order endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

// List godoc
// @Summary      List sales orders
// @Tags         orders
// @Produce      json
// @Param        query query string false "Order number, customer name or email"
// @Param        status query string false "Order status"
// @Param        source_platform query string false "SHOPIFY, WOOCOMMERCE or AMAZON_FBA"
// @Param        from query string false "Ordered on or after (YYYY-MM-DD)"
// @Param        to query string false "Ordered before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size (alias of page_size)" default(20)
// @Success      200 {object} APIResponse[[]tradeapp.SalesOrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter tradeapp.SalesOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get a sales order with its lines
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.SalesOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
