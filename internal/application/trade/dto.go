package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// PurchaseOrderItemInput is one line of a purchase order request.
// UnitCost defaults to the variant's current cost.
type PurchaseOrderItemInput struct {
	VariantID uuid.UUID        `json:"variant_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest represents a request to create a draft purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID uuid.UUID                `json:"supplier_id" binding:"required"`
	ExpectedAt *time.Time               `json:"expected_at"`
	Notes      string                   `json:"notes" binding:"max=2000"`
	Items      []PurchaseOrderItemInput `json:"items" binding:"omitempty,dive"`
}

// UpdatePurchaseOrderRequest changes a draft order. Items, when present, replace all lines.
type UpdatePurchaseOrderRequest struct {
	ExpectedAt *time.Time               `json:"expected_at"`
	Notes      *string                  `json:"notes" binding:"omitempty,max=2000"`
	Items      []PurchaseOrderItemInput `json:"items" binding:"omitempty,dive"`
}

// ReceiveLineInput is the quantity received for one purchase order item
type ReceiveLineInput struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// ReceivePurchaseOrderRequest records goods received against an order
type ReceivePurchaseOrderRequest struct {
	Lines []ReceiveLineInput `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseOrderListFilter is the query of GET /purchase-orders
type PurchaseOrderListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=draft ordered partially_received received cancelled"`
	SupplierID *uuid.UUID `form:"-"` // parsed by the handler
	Search     string     `form:"search"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PurchaseOrderItemResponse represents a purchase order line in API responses
type PurchaseOrderItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	VariantID        uuid.UUID       `json:"variant_id"`
	SKU              string          `json:"sku"`
	Quantity         int             `json:"quantity"`
	ReceivedQuantity int             `json:"received_quantity"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID         uuid.UUID                   `json:"id"`
	TenantID   uuid.UUID                   `json:"tenant_id"`
	SupplierID uuid.UUID                   `json:"supplier_id"`
	Number     string                      `json:"number"`
	Status     string                      `json:"status"`
	ExpectedAt *time.Time                  `json:"expected_at,omitempty"`
	OrderedAt  *time.Time                  `json:"ordered_at,omitempty"`
	ReceivedAt *time.Time                  `json:"received_at,omitempty"`
	Notes      string                      `json:"notes"`
	Total      decimal.Decimal             `json:"total"`
	Items      []PurchaseOrderItemResponse `json:"items"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// SalesOrderListFilter is the query of GET /orders. Limit is accepted as an alias of page_size.
type SalesOrderListFilter struct {
	Query          string     `form:"query"`
	Status         string     `form:"status" binding:"omitempty,oneof=pending paid fulfilled cancelled refunded"`
	SourcePlatform string     `form:"source_platform"`
	From           *time.Time `form:"from" time_format:"2006-01-02"`
	To             *time.Time `form:"to" time_format:"2006-01-02"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Limit          int        `form:"limit" binding:"omitempty,min=1,max=100"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SalesOrderLineResponse represents a sales order line in API responses
type SalesOrderLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	VariantID *uuid.UUID      `json:"variant_id,omitempty"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID             uuid.UUID                `json:"id"`
	OrderNumber    string                   `json:"order_number"`
	SourcePlatform string                   `json:"source_platform"`
	ExternalID     string                   `json:"external_id,omitempty"`
	CustomerName   string                   `json:"customer_name"`
	CustomerEmail  string                   `json:"customer_email"`
	Status         string                   `json:"status"`
	Currency       string                   `json:"currency"`
	Subtotal       decimal.Decimal          `json:"subtotal"`
	Tax            decimal.Decimal          `json:"tax"`
	Total          decimal.Decimal          `json:"total"`
	UnitsSold      int                      `json:"units_sold"`
	OrderedAt      time.Time                `json:"ordered_at"`
	Lines          []SalesOrderLineResponse `json:"lines"`
}

// ToPurchaseOrderResponse converts a domain purchase order to a response
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, PurchaseOrderItemResponse{
			ID:               item.ID,
			VariantID:        item.VariantID,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			ReceivedQuantity: item.ReceivedQuantity,
			UnitCost:         item.UnitCost,
			LineTotal:        item.LineTotal(),
		})
	}
	return PurchaseOrderResponse{
		ID:         o.ID,
		TenantID:   o.TenantID,
		SupplierID: o.SupplierID,
		Number:     o.Number,
		Status:     string(o.Status),
		ExpectedAt: o.ExpectedAt,
		OrderedAt:  o.OrderedAt,
		ReceivedAt: o.ReceivedAt,
		Notes:      o.Notes,
		Total:      o.Total,
		Items:      items,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// ToSalesOrderResponse converts a domain sales order to a response
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	lines := make([]SalesOrderLineResponse, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		lines = append(lines, SalesOrderLineResponse{
			ID:        l.ID,
			VariantID: l.VariantID,
			SKU:       l.SKU,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			UnitCost:  l.UnitCost,
			LineTotal: l.LineTotal(),
		})
	}
	return SalesOrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		SourcePlatform: o.SourcePlatform,
		ExternalID:     o.ExternalID,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		Status:         string(o.Status),
		Currency:       o.Currency,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		Total:          o.Total,
		UnitsSold:      o.UnitsSold(),
		OrderedAt:      o.OrderedAt,
		Lines:          lines,
	}
}
