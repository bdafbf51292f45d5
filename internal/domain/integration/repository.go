package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// IntegrationFilter narrows integration listings
type IntegrationFilter struct {
	shared.Filter
	Platform PlatformCode
	Status   Status
}

// IntegrationRepository defines persistence for integrations
type IntegrationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Integration, error)
	// FindByID is unscoped; callers must cross-check the tenant
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter IntegrationFilter) ([]Integration, int64, error)
	// FindByStoreHost resolves webhook deliveries to the one live integration of a store.
	// A store host is live for at most one integration across all tenants.
	FindByStoreHost(ctx context.Context, platform PlatformCode, host string) (*Integration, error)
	// FindAutoSync lists integrations with AutoSync enabled that are not disconnected
	FindAutoSync(ctx context.Context) ([]Integration, error)
	// ExistsForStoreHost reports whether any tenant has a live integration for the host
	ExistsForStoreHost(ctx context.Context, platform PlatformCode, host string) (bool, error)
	Create(ctx context.Context, integration *Integration) error
	// Save updates an existing integration and returns ErrIntegrationNotFound once it was deleted
	Save(ctx context.Context, integration *Integration) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// SyncRunRepository defines persistence for sync runs
type SyncRunRepository interface {
	Create(ctx context.Context, run *SyncRun) error
	// Save updates an existing run and returns shared.ErrNotFound once it was deleted
	Save(ctx context.Context, run *SyncRun) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SyncRun, error)
	FindByIntegration(ctx context.Context, tenantID, integrationID uuid.UUID, filter shared.Filter) ([]SyncRun, int64, error)
	// LastSuccessfulStart returns the start time of the latest successful run covering kind, or nil
	LastSuccessfulStart(ctx context.Context, tenantID, integrationID uuid.UUID, kind SyncKind) (*time.Time, error)
}

// WebhookEventRepository defines persistence for webhook deliveries
type WebhookEventRepository interface {
	// Insert returns shared.ErrAlreadyExists when (platform, event_id) was seen before
	Insert(ctx context.Context, event *WebhookEvent) error
	Save(ctx context.Context, event *WebhookEvent) error
	// Delete forgets a delivery so a redelivery is applied again
	Delete(ctx context.Context, event *WebhookEvent) error
	Exists(ctx context.Context, platform PlatformCode, eventID string) (bool, error)
}
