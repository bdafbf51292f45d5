package persistence

import (
	"context"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWebhookEventRepository implements integration.WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// Insert records a first delivery. A replayed (platform, event_id) yields shared.ErrAlreadyExists.
func (r *GormWebhookEventRepository) Insert(ctx context.Context, event *integration.WebhookEvent) error {
	m := &models.WebhookEventModel{}
	m.FromDomain(event)
	return translateError(conn(ctx, r.db).Create(m).Error)
}

// Save updates the processing outcome of a recorded event
func (r *GormWebhookEventRepository) Save(ctx context.Context, event *integration.WebhookEvent) error {
	m := &models.WebhookEventModel{}
	m.FromDomain(event)
	return translateError(conn(ctx, r.db).Save(m).Error)
}

// Delete removes a recorded delivery
func (r *GormWebhookEventRepository) Delete(ctx context.Context, event *integration.WebhookEvent) error {
	return conn(ctx, r.db).Where("id = ?", event.ID).Delete(&models.WebhookEventModel{}).Error
}

// Exists reports whether a delivery with this ID was already recorded
func (r *GormWebhookEventRepository) Exists(ctx context.Context, platform integration.PlatformCode, eventID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.WebhookEventModel{}).
		Where("platform = ? AND event_id = ?", platform, eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ integration.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
