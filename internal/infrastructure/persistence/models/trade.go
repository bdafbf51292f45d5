package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockpilot/backend/internal/domain/trade"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate.
type PurchaseOrderModel struct {
	BaseModel
	TenantID   uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_po_tenant_number,priority:1"`
	SupplierID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Number     string                    `gorm:"type:varchar(50);not null;uniqueIndex:idx_po_tenant_number,priority:2"`
	Status     trade.PurchaseOrderStatus `gorm:"type:varchar(30);not null;index"`
	ExpectedAt *time.Time
	OrderedAt  *time.Time
	ReceivedAt *time.Time
	Notes      string                   `gorm:"type:text"`
	Total      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Items      []PurchaseOrderItemModel `gorm:"foreignKey:PurchaseOrderID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderItemModel is the persistence model for a purchase order line
type PurchaseOrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID        uuid.UUID       `gorm:"type:uuid;not null"`
	SKU              string          `gorm:"column:sku;type:varchar(100);not null"`
	Quantity         int             `gorm:"not null"`
	ReceivedQuantity int             `gorm:"not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	po := &trade.PurchaseOrder{
		TenantEntity: m.tenantEntity(m.TenantID),
		SupplierID:   m.SupplierID,
		Number:       m.Number,
		Status:       m.Status,
		ExpectedAt:   m.ExpectedAt,
		OrderedAt:    m.OrderedAt,
		ReceivedAt:   m.ReceivedAt,
		Notes:        m.Notes,
		Total:        m.Total,
		Items:        make([]trade.PurchaseOrderItem, 0, len(m.Items)),
	}
	for _, item := range m.Items {
		po.Items = append(po.Items, trade.PurchaseOrderItem{
			ID:               item.ID,
			VariantID:        item.VariantID,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			ReceivedQuantity: item.ReceivedQuantity,
			UnitCost:         item.UnitCost,
		})
	}
	return po
}

// FromDomain populates the model and its items from a domain PurchaseOrder
func (m *PurchaseOrderModel) FromDomain(po *trade.PurchaseOrder) {
	m.FromDomainBaseEntity(po.BaseEntity)
	m.TenantID = po.TenantID
	m.SupplierID = po.SupplierID
	m.Number = po.Number
	m.Status = po.Status
	m.ExpectedAt = utcPtr(po.ExpectedAt)
	m.OrderedAt = utcPtr(po.OrderedAt)
	m.ReceivedAt = utcPtr(po.ReceivedAt)
	m.Notes = po.Notes
	m.Total = po.Total
	m.Items = make([]PurchaseOrderItemModel, 0, len(po.Items))
	for _, item := range po.Items {
		m.Items = append(m.Items, PurchaseOrderItemModel{
			ID:               item.ID,
			PurchaseOrderID:  po.ID,
			VariantID:        item.VariantID,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
			ReceivedQuantity: item.ReceivedQuantity,
			UnitCost:         item.UnitCost,
		})
	}
}

// PurchaseOrderModelFromDomain creates a model from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(po *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// SalesOrderModel is the persistence model for the SalesOrder aggregate.
type SalesOrderModel struct {
	BaseModel
	TenantID       uuid.UUID              `gorm:"type:uuid;not null;index:idx_sales_order_tenant_ordered,priority:1;uniqueIndex:idx_sales_order_external,priority:1,where:external_id <> ''"`
	OrderNumber    string                 `gorm:"type:varchar(100);not null"`
	SourcePlatform string                 `gorm:"type:varchar(30);not null;uniqueIndex:idx_sales_order_external,priority:2,where:external_id <> ''"`
	ExternalID     string                 `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_sales_order_external,priority:3,where:external_id <> ''"`
	CustomerName   string                 `gorm:"type:varchar(200)"`
	CustomerEmail  string                 `gorm:"type:varchar(200)"`
	Status         trade.SalesOrderStatus `gorm:"type:varchar(20);not null;index"`
	Currency       string                 `gorm:"type:varchar(3);not null"`
	Subtotal       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Tax            decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	OrderedAt      time.Time              `gorm:"not null;index:idx_sales_order_tenant_ordered,priority:2"`
	Lines          []SalesOrderLineModel  `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderLineModel is the persistence model for a sales order line
type SalesOrderLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_line_tenant_sku,priority:1"`
	VariantID  *uuid.UUID      `gorm:"type:uuid"`
	SKU        string          `gorm:"column:sku;type:varchar(100);index:idx_sales_line_tenant_sku,priority:2"`
	Title      string          `gorm:"type:varchar(255)"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExternalID string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	o := &trade.SalesOrder{
		TenantEntity:   m.tenantEntity(m.TenantID),
		OrderNumber:    m.OrderNumber,
		SourcePlatform: m.SourcePlatform,
		ExternalID:     m.ExternalID,
		CustomerName:   m.CustomerName,
		CustomerEmail:  m.CustomerEmail,
		Status:         m.Status,
		Currency:       m.Currency,
		Subtotal:       m.Subtotal,
		Tax:            m.Tax,
		Total:          m.Total,
		OrderedAt:      m.OrderedAt,
		Lines:          make([]trade.SalesOrderLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		o.Lines = append(o.Lines, trade.SalesOrderLine{
			ID:         l.ID,
			VariantID:  l.VariantID,
			SKU:        l.SKU,
			Title:      l.Title,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			UnitCost:   l.UnitCost,
			ExternalID: l.ExternalID,
		})
	}
	return o
}

// FromDomain populates the model and its lines from a domain SalesOrder
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.OrderNumber = o.OrderNumber
	m.SourcePlatform = o.SourcePlatform
	m.ExternalID = o.ExternalID
	m.CustomerName = o.CustomerName
	m.CustomerEmail = o.CustomerEmail
	m.Status = o.Status
	m.Currency = o.Currency
	m.Subtotal = o.Subtotal
	m.Tax = o.Tax
	m.Total = o.Total
	m.OrderedAt = o.OrderedAt.UTC()
	m.Lines = make([]SalesOrderLineModel, 0, len(o.Lines))
	for _, l := range o.Lines {
		m.Lines = append(m.Lines, SalesOrderLineModel{
			ID:         l.ID,
			OrderID:    o.ID,
			TenantID:   o.TenantID,
			VariantID:  l.VariantID,
			SKU:        l.SKU,
			Title:      l.Title,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			UnitCost:   l.UnitCost,
			ExternalID: l.ExternalID,
		})
	}
}

// SalesOrderModelFromDomain creates a model from a domain SalesOrder
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}
