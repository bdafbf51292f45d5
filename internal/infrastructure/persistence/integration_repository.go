package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormIntegrationRepository implements integration.IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByIDForTenant finds an integration by ID within a tenant
func (r *GormIntegrationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := conn(ctx, r.db).Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, integrationNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByID loads an integration without tenant scoping. Background workers use it
// and must compare the owner against the job's tenant themselves.
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, integrationNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists integrations matching the filter
func (r *GormIntegrationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter integration.IntegrationFilter) ([]integration.Integration, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.TenantScope(tenantID))
		if filter.Platform != "" {
			db = db.Where("platform = ?", filter.Platform)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			db = db.Where("LOWER(name) LIKE ? OR LOWER(store_url) LIKE ?", pattern, pattern)
		}
		return db
	}

	var total int64
	if err := conn(ctx, r.db).Model(&models.IntegrationModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.IntegrationModel
	if err := paginate(conn(ctx, r.db).Scopes(scope), filter.Filter, IntegrationSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return integrationsToDomain(rows), total, nil
}

// FindByStoreHost returns the live integration for a store host
func (r *GormIntegrationRepository) FindByStoreHost(ctx context.Context, platform integration.PlatformCode, host string) (*integration.Integration, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, integration.ErrIntegrationNotFound
	}
	var model models.IntegrationModel
	if err := conn(ctx, r.db).Scopes(liveStoreHost(platform, host)).First(&model).Error; err != nil {
		return nil, integrationNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAutoSync lists auto-sync integrations that are still connected
func (r *GormIntegrationRepository) FindAutoSync(ctx context.Context) ([]integration.Integration, error) {
	var rows []models.IntegrationModel
	err := conn(ctx, r.db).
		Where("auto_sync = ? AND status NOT IN ?", true, []integration.Status{integration.StatusDisconnected, integration.StatusPending}).
		Order("last_sync_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return integrationsToDomain(rows), nil
}

// ExistsForStoreHost reports whether any tenant has a live integration for the host
func (r *GormIntegrationRepository) ExistsForStoreHost(ctx context.Context, platform integration.PlatformCode, host string) (bool, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false, nil
	}
	var count int64
	err := conn(ctx, r.db).Model(&models.IntegrationModel{}).Scopes(liveStoreHost(platform, host)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new integration. A second live integration for the same
// store host yields shared.ErrAlreadyExists.
func (r *GormIntegrationRepository) Create(ctx context.Context, i *integration.Integration) error {
	return translateError(conn(ctx, r.db).Create(models.IntegrationModelFromDomain(i)).Error)
}

// Save updates an existing integration. It never inserts: a sync finishing
// after the integration was deleted gets ErrIntegrationNotFound.
func (r *GormIntegrationRepository) Save(ctx context.Context, i *integration.Integration) error {
	m := models.IntegrationModelFromDomain(i)
	result := conn(ctx, r.db).Model(m).
		Where("tenant_id = ?", m.TenantID).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(m)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// DeleteForTenant removes an integration and its run history
func (r *GormIntegrationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(tenant.TenantScope(tenantID)).Where("id = ?", id).Delete(&models.IntegrationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return integration.ErrIntegrationNotFound
		}
		return tx.Where("tenant_id = ? AND integration_id = ?", tenantID, id).Delete(&models.SyncRunModel{}).Error
	})
}

func liveStoreHost(platform integration.PlatformCode, host string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("platform = ? AND store_host = ? AND status <> ?", platform, host, integration.StatusDisconnected)
	}
}

func integrationNotFound(err error) error {
	err = translateError(err)
	if errors.Is(err, shared.ErrNotFound) {
		return integration.ErrIntegrationNotFound
	}
	return err
}

func integrationsToDomain(rows []models.IntegrationModel) []integration.Integration {
	out := make([]integration.Integration, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out
}

var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
