package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// SupplierFilter narrows supplier listings
type SupplierFilter struct {
	shared.Filter
	ActiveOnly bool
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Supplier, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Supplier, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SupplierFilter) ([]Supplier, int64, error)
	Save(ctx context.Context, supplier *Supplier) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
}
