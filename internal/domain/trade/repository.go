package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// PurchaseOrderFilter narrows purchase order listings
type PurchaseOrderFilter struct {
	shared.Filter
	Status     PurchaseOrderStatus
	SupplierID *uuid.UUID
}

// PurchaseOrderRepository defines persistence for purchase orders
type PurchaseOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PurchaseOrderFilter) ([]PurchaseOrder, int64, error)
	Save(ctx context.Context, order *PurchaseOrder) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	// NextNumber generates the next order number for the tenant, e.g. PO-20250101-0001
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// SalesOrderFilter narrows sales order listings
type SalesOrderFilter struct {
	shared.Filter
	Status         SalesOrderStatus
	SourcePlatform string
	From           *time.Time
	To             *time.Time
}

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesOrder, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SalesOrderFilter) ([]SalesOrder, int64, error)
	Save(ctx context.Context, order *SalesOrder) error
	// UpsertFromPlatform inserts or updates an order keyed by (tenant, platform, external_id)
	UpsertFromPlatform(ctx context.Context, order *SalesOrder) error
}
