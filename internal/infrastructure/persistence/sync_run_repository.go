package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormSyncRunRepository implements integration.SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Create inserts a new sync run
func (r *GormSyncRunRepository) Create(ctx context.Context, run *integration.SyncRun) error {
	m := &models.SyncRunModel{}
	m.FromDomain(run)
	return translateError(conn(ctx, r.db).Create(m).Error)
}

// Save updates an existing sync run; runs deleted with their integration stay deleted
func (r *GormSyncRunRepository) Save(ctx context.Context, run *integration.SyncRun) error {
	m := &models.SyncRunModel{}
	m.FromDomain(run)
	result := conn(ctx, r.db).Model(m).
		Where("tenant_id = ?", m.TenantID).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(m)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForTenant finds a sync run within a tenant
func (r *GormSyncRunRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*integration.SyncRun, error) {
	var model models.SyncRunModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIntegration lists the run history of an integration, newest first by default
func (r *GormSyncRunRepository) FindByIntegration(ctx context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) ([]integration.SyncRun, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Scopes(tenant.TenantScope(tenantID)).Where("integration_id = ?", integrationID)
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.SyncRunModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.OrderBy == "" {
		filter.OrderBy = "started_at"
	}
	var rows []models.SyncRunModel
	if err := paginate(conn(ctx, r.db).Scopes(scope), filter, SyncRunSortFields, "started_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	runs := make([]integration.SyncRun, 0, len(rows))
	for i := range rows {
		runs = append(runs, *rows[i].ToDomain())
	}
	return runs, total, nil
}

// LastSuccessfulStart returns when the latest successful run covering kind started,
// or nil when there is none. Incremental order syncs page from this point.
func (r *GormSyncRunRepository) LastSuccessfulStart(ctx context.Context, tenantID, integrationID uuid.UUID, kind integration.SyncKind) (*time.Time, error) {
	kinds := []integration.SyncKind{kind, integration.SyncKindFull}
	if kind == integration.SyncKindFull {
		kinds = kinds[:1]
	}
	var model models.SyncRunModel
	err := conn(ctx, r.db).
		Scopes(tenant.TenantScope(tenantID)).
		Select("started_at").
		Where("integration_id = ? AND status = ? AND kind IN ?", integrationID, integration.SyncRunSucceeded, kinds).
		Order("started_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	started := model.StartedAt
	return &started, nil
}

var _ integration.SyncRunRepository = (*GormSyncRunRepository)(nil)
