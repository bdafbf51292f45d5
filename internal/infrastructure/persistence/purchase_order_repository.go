package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByIDForTenant finds a purchase order with its items within a tenant
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sku ASC") }).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists purchase orders matching the filter
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.PurchaseOrderFilter) ([]trade.PurchaseOrder, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.TenantScope(tenantID))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.SupplierID != nil {
			db = db.Where("supplier_id = ?", *filter.SupplierID)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(number) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.PurchaseOrderModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PurchaseOrderModel
	err := paginate(conn(ctx, r.db).Scopes(scope), filter.Filter, PurchaseOrderSortFields, "created_at").
		Preload("Items").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]trade.PurchaseOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save writes the order header and replaces its item set
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		keep := make([]uuid.UUID, 0, len(model.Items))
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return translateError(err)
			}
			keep = append(keep, model.Items[i].ID)
		}
		stale := tx.Where("purchase_order_id = ?", order.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&models.PurchaseOrderItemModel{}).Error
	})
}

// DeleteForTenant deletes a purchase order and its items
func (r *GormPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).Delete(&models.PurchaseOrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error
	})
}

// NextNumber returns the next PO-YYYYMMDD-NNNN number for today.
// Concurrent callers may race; the unique index turns the loser into ErrAlreadyExists.
func (r *GormPurchaseOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := "PO-" + time.Now().UTC().Format("20060102") + "-"
	var count int64
	err := conn(ctx, r.db).Model(&models.PurchaseOrderModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
