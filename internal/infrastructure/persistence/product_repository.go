package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// externalKey is the conflict target shared by all platform-sourced tables
var (
	externalKeyColumns = []clause.Column{{Name: "tenant_id"}, {Name: "source_platform"}, {Name: "external_id"}}
	externalKeyWhere   = clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "external_id <> ''"}}}
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func preloadVariants(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, sku ASC")
}

// FindByIDForTenant finds a product with its variants within a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Variants", preloadVariants).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a platform-sourced product by its external key
func (r *GormProductRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, platform, externalID string) (*catalog.Product, error) {
	if externalID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ProductModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Variants", preloadVariants).
		Where("source_platform = ? AND external_id = ?", platform, externalID).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists products matching the filter and returns the total before paging
func (r *GormProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.TenantScope(tenantID))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.SourcePlatform != "" {
			db = db.Where("source_platform = ?", filter.SourcePlatform)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where(
				"LOWER(title) LIKE ? OR LOWER(vendor) LIKE ? OR id IN (?)",
				pattern, pattern,
				r.db.Model(&models.VariantModel{}).Select("product_id").
					Where("tenant_id = ? AND LOWER(sku) LIKE ?", tenantID, pattern),
			)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.ProductModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	err := paginate(conn(ctx, r.db).Scopes(scope), filter.Filter, ProductSortFields, "created_at").
		Preload("Variants", preloadVariants).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, total, nil
}

// Save creates or updates a product and replaces its variant set
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(models.ProductModelFromDomain(product)).Error; err != nil {
			return translateError(err)
		}

		keep := make([]uuid.UUID, 0, len(product.Variants))
		for i := range product.Variants {
			v := &product.Variants[i]
			v.ProductID = product.ID
			if err := tx.Save(models.VariantModelFromDomain(v)).Error; err != nil {
				return translateError(err)
			}
			keep = append(keep, v.ID)
		}

		stale := tx.Where("tenant_id = ? AND product_id = ?", product.TenantID, product.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&models.VariantModel{}).Error
	})
}

// UpsertFromPlatform inserts or updates a product and its variants by external key.
// Local-only variant settings (reorder policy, supplier) survive the update.
// The stored IDs are written back into product.
func (r *GormProductRepository) UpsertFromPlatform(ctx context.Context, product *catalog.Product) error {
	if product.ExternalID == "" || product.SourcePlatform == "" {
		return shared.NewDomainError("INVALID_INPUT", "Platform products need a source platform and external ID")
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		model := models.ProductModelFromDomain(product)
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:     externalKeyColumns,
			TargetWhere: externalKeyWhere,
			DoUpdates:   clause.AssignmentColumns([]string{"title", "description", "vendor", "product_type", "status", "updated_at"}),
		}).Create(model).Error
		if err != nil {
			return translateError(err)
		}

		var stored models.ProductModel
		if err := tx.Select("id", "created_at").
			Where("tenant_id = ? AND source_platform = ? AND external_id = ?", product.TenantID, product.SourcePlatform, product.ExternalID).
			Take(&stored).Error; err != nil {
			return translateError(err)
		}
		product.ID = stored.ID
		product.CreatedAt = stored.CreatedAt

		for i := range product.Variants {
			v := &product.Variants[i]
			v.TenantID = product.TenantID
			v.ProductID = product.ID
			if v.SourcePlatform == "" {
				v.SourcePlatform = product.SourcePlatform
			}
			if err := upsertVariant(tx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertVariant(tx *gorm.DB, v *catalog.Variant) error {
	if v.ExternalID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Platform variants need an external ID")
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:     externalKeyColumns,
		TargetWhere: externalKeyWhere,
		DoUpdates:   clause.AssignmentColumns([]string{"product_id", "sku", "title", "price", "cost", "inventory_quantity", "updated_at"}),
	}).Create(models.VariantModelFromDomain(v)).Error
	if err != nil {
		return translateError(err)
	}

	var stored models.VariantModel
	if err := tx.
		Where("tenant_id = ? AND source_platform = ? AND external_id = ?", v.TenantID, v.SourcePlatform, v.ExternalID).
		Take(&stored).Error; err != nil {
		return translateError(err)
	}
	v.ID = stored.ID
	v.CreatedAt = stored.CreatedAt
	v.ReorderPoint = stored.ReorderPoint
	v.ReorderQuantity = stored.ReorderQuantity
	v.SupplierID = stored.SupplierID
	return nil
}

// DeleteForTenant deletes a product and its variants
func (r *GormProductRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND product_id = ?", tenantID, id).Delete(&models.VariantModel{}).Error; err != nil {
			return err
		}
		result := tx.Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).Delete(&models.ProductModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsBySKU reports whether any variant of the tenant uses sku
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.VariantModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("sku = ?", strings.TrimSpace(sku)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
