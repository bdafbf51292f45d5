package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByIDForTenant finds a variant by ID within a tenant
func (r *GormVariantRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Variant, error) {
	var model models.VariantModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a variant by SKU within a tenant
func (r *GormVariantRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Variant, error) {
	var model models.VariantModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKUs returns the variants matching any of skus; unknown SKUs are skipped
func (r *GormVariantRepository) FindBySKUs(ctx context.Context, tenantID uuid.UUID, skus []string) ([]catalog.Variant, error) {
	if len(skus) == 0 {
		return []catalog.Variant{}, nil
	}
	var rows []models.VariantModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("sku IN ?", skus).Find(&rows).Error; err != nil {
		return nil, err
	}
	return variantsToDomain(rows), nil
}

// FindAllForTenant returns every variant of the tenant ordered by SKU
func (r *GormVariantRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Variant, error) {
	var rows []models.VariantModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return variantsToDomain(rows), nil
}

// Save creates or updates a variant
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.Variant) error {
	return translateError(conn(ctx, r.db).Save(models.VariantModelFromDomain(variant)).Error)
}

// AdjustInventory applies delta atomically and returns the new quantity.
// The update is guarded so concurrent adjustments can never drive stock negative.
func (r *GormVariantRepository) AdjustInventory(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error) {
	db := conn(ctx, r.db)
	result := db.Model(&models.VariantModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ? AND inventory_quantity + ? >= 0", id, delta).
		Updates(map[string]any{
			"inventory_quantity": gorm.Expr("inventory_quantity + ?", delta),
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	var model models.VariantModel
	if err := db.Scopes(tenant.TenantScope(tenantID)).Select("inventory_quantity").Where("id = ?", id).First(&model).Error; err != nil {
		return 0, translateError(err)
	}
	if result.RowsAffected == 0 {
		return model.InventoryQuantity, shared.NewDomainError("INSUFFICIENT_STOCK", "Inventory cannot go below zero")
	}
	return model.InventoryQuantity, nil
}

func variantsToDomain(rows []models.VariantModel) []catalog.Variant {
	variants := make([]catalog.Variant, 0, len(rows))
	for i := range rows {
		variants = append(variants, *rows[i].ToDomain())
	}
	return variants
}

var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
