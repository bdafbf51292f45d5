package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/partner"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByIDForTenant finds a supplier by ID within a tenant
func (r *GormSupplierRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByName finds a supplier by name within a tenant, ignoring case
func (r *GormSupplierRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*partner.Supplier, error) {
	var model models.SupplierModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists suppliers matching the filter
func (r *GormSupplierRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.SupplierFilter) ([]partner.Supplier, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.TenantScope(tenantID))
		if filter.ActiveOnly {
			db = db.Where("active = ?", true)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.SupplierModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SupplierModel
	if err := paginate(conn(ctx, r.db).Scopes(scope), filter.Filter, SupplierSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	suppliers := make([]partner.Supplier, 0, len(rows))
	for i := range rows {
		suppliers = append(suppliers, *rows[i].ToDomain())
	}
	return suppliers, total, nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return translateError(conn(ctx, r.db).Save(models.SupplierModelFromDomain(supplier)).Error)
}

// DeleteForTenant deletes a supplier. Variants pointing at it lose the link.
func (r *GormSupplierRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VariantModel{}).
			Where("tenant_id = ? AND supplier_id = ?", tenantID, id).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}
		result := tx.Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).Delete(&models.SupplierModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsByName reports whether the tenant already has a supplier called name
func (r *GormSupplierRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.SupplierModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
