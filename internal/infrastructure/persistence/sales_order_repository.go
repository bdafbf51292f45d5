package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/trade"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements trade.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByIDForTenant finds a sales order with its lines within a tenant
func (r *GormSalesOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Lines").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists sales orders, newest first by default
func (r *GormSalesOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter trade.SalesOrderFilter) ([]trade.SalesOrder, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.TenantScope(tenantID))
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.SourcePlatform != "" {
			db = db.Where("source_platform = ?", filter.SourcePlatform)
		}
		if filter.From != nil {
			db = db.Where("ordered_at >= ?", filter.From.UTC())
		}
		if filter.To != nil {
			db = db.Where("ordered_at < ?", filter.To.UTC())
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", pattern, pattern, pattern)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.SalesOrderModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy = "ordered_at"
	}
	var rows []models.SalesOrderModel
	if err := paginate(conn(ctx, r.db).Scopes(scope), page, SalesOrderSortFields, "ordered_at").Preload("Lines").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]trade.SalesOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save writes the order header and replaces its lines
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		return replaceLines(tx, order.ID, model.Lines)
	})
}

// UpsertFromPlatform inserts or updates an order by its external key and replaces its lines.
// The stored ID is written back into order.
func (r *GormSalesOrderRepository) UpsertFromPlatform(ctx context.Context, order *trade.SalesOrder) error {
	if order.ExternalID == "" || order.SourcePlatform == "" {
		return shared.NewDomainError("INVALID_INPUT", "Platform orders need a source platform and external ID")
	}
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:     externalKeyColumns,
			TargetWhere: externalKeyWhere,
			DoUpdates: clause.AssignmentColumns([]string{
				"order_number", "customer_name", "customer_email", "status", "currency",
				"subtotal", "tax", "total", "ordered_at", "updated_at",
			}),
		}).Create(models.SalesOrderModelFromDomain(order)).Error
		if err != nil {
			return translateError(err)
		}

		var stored models.SalesOrderModel
		if err := tx.Select("id", "created_at").
			Where("tenant_id = ? AND source_platform = ? AND external_id = ?", order.TenantID, order.SourcePlatform, order.ExternalID).
			Take(&stored).Error; err != nil {
			return translateError(err)
		}
		order.ID = stored.ID
		order.CreatedAt = stored.CreatedAt

		return replaceLines(tx, order.ID, models.SalesOrderModelFromDomain(order).Lines)
	})
}

func replaceLines(tx *gorm.DB, orderID uuid.UUID, lines []models.SalesOrderLineModel) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.SalesOrderLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return translateError(tx.Create(&lines).Error)
}

var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
