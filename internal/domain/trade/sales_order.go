package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// SalesOrderStatus is the normalized status of a sale across platforms
type SalesOrderStatus string

const (
	SalesOrderStatusPending   SalesOrderStatus = "pending"
	SalesOrderStatusPaid      SalesOrderStatus = "paid"
	SalesOrderStatusFulfilled SalesOrderStatus = "fulfilled"
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
	SalesOrderStatusRefunded  SalesOrderStatus = "refunded"
)

// IsValid returns true if the status is known
func (s SalesOrderStatus) IsValid() bool {
	switch s {
	case SalesOrderStatusPending, SalesOrderStatusPaid, SalesOrderStatusFulfilled,
		SalesOrderStatusCancelled, SalesOrderStatusRefunded:
		return true
	default:
		return false
	}
}

// CountsAsRevenue reports whether orders in this status contribute to revenue figures
func (s SalesOrderStatus) CountsAsRevenue() bool {
	return s == SalesOrderStatusPaid || s == SalesOrderStatusFulfilled || s == SalesOrderStatusPending
}

// SalesOrderLine is one product line of a sale
type SalesOrderLine struct {
	ID         uuid.UUID
	VariantID  *uuid.UUID
	SKU        string
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
	UnitCost   decimal.Decimal
	ExternalID string
}

// LineTotal is quantity times unit price
func (l *SalesOrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineCost is quantity times unit cost at the time of sale
func (l *SalesOrderLine) LineCost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SalesOrder is a sale, either recorded manually or pulled from a commerce platform
type SalesOrder struct {
	shared.TenantEntity
	OrderNumber    string
	SourcePlatform string
	ExternalID     string
	CustomerName   string
	CustomerEmail  string
	Status         SalesOrderStatus
	Currency       string
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	OrderedAt      time.Time
	Lines          []SalesOrderLine
}

// NewSalesOrder creates a sales order
func NewSalesOrder(tenantID uuid.UUID, orderNumber, sourcePlatform string, orderedAt time.Time) (*SalesOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if orderedAt.IsZero() {
		orderedAt = time.Now()
	}
	return &SalesOrder{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		OrderNumber:    orderNumber,
		SourcePlatform: sourcePlatform,
		Status:         SalesOrderStatusPending,
		Currency:       "USD",
		Subtotal:       decimal.Zero,
		Tax:            decimal.Zero,
		Total:          decimal.Zero,
		OrderedAt:      orderedAt,
	}, nil
}

// AddLine appends a line and recomputes the subtotal
func (o *SalesOrder) AddLine(line SalesOrderLine) error {
	if line.Quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	o.Lines = append(o.Lines, line)
	o.recalculate()
	return nil
}

// SetTax sets the tax amount and recomputes the total
func (o *SalesOrder) SetTax(tax decimal.Decimal) {
	o.Tax = tax
	o.recalculate()
}

// SetStatus changes the status
func (o *SalesOrder) SetStatus(status SalesOrderStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown sales order status")
	}
	o.Status = status
	o.Touch()
	return nil
}

// CostOfGoods sums line costs
func (o *SalesOrder) CostOfGoods() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].LineCost())
	}
	return total
}

// UnitsSold sums line quantities
func (o *SalesOrder) UnitsSold() int {
	units := 0
	for _, l := range o.Lines {
		units += l.Quantity
	}
	return units
}

func (o *SalesOrder) recalculate() {
	subtotal := decimal.Zero
	for i := range o.Lines {
		subtotal = subtotal.Add(o.Lines[i].LineTotal())
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.Tax)
	o.Touch()
}
