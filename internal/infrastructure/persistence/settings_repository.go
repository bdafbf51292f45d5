package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/report"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements report.SettingsRepository on the tenant_settings table
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// GetInt reads an integer setting; ok is false when it was never set
func (r *GormSettingsRepository) GetInt(ctx context.Context, tenantID uuid.UUID, key string) (int, bool, error) {
	var model models.TenantSettingModel
	err := conn(ctx, r.db).Where(&models.TenantSettingModel{TenantID: tenantID, Key: key}).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.Atoi(model.Value)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// SetInt writes an integer setting, replacing any previous value
func (r *GormSettingsRepository) SetInt(ctx context.Context, tenantID uuid.UUID, key string, value int) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.TenantSettingModel{
		TenantID:  tenantID,
		Key:       key,
		Value:     strconv.Itoa(value),
		UpdatedAt: time.Now().UTC(),
	}).Error
}

var _ report.SettingsRepository = (*GormSettingsRepository)(nil)
