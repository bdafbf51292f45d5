package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	Status         ProductStatus
	SourcePlatform string
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByIDForTenant finds a product with its variants within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByExternalID finds a platform-sourced product
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, platform, externalID string) (*Product, error)

	// FindAllForTenant lists products for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ProductFilter) ([]Product, int64, error)

	// Save creates or updates a product and its variants
	Save(ctx context.Context, product *Product) error

	// UpsertFromPlatform inserts or updates a product keyed by (tenant, platform, external_id).
	// Variants are upserted by the same key; the stored IDs are written back to product.
	UpsertFromPlatform(ctx context.Context, product *Product) error

	// DeleteForTenant deletes a product and its variants
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// ExistsBySKU reports whether any variant of the tenant uses sku
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
}

// VariantRepository defines persistence for individual variants
type VariantRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Variant, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Variant, error)
	FindBySKUs(ctx context.Context, tenantID uuid.UUID, skus []string) ([]Variant, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Variant, error)
	Save(ctx context.Context, variant *Variant) error
	// AdjustInventory atomically applies delta to on-hand stock and returns the new quantity
	AdjustInventory(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error)
}
