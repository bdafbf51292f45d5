package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
)

// IntegrationModel is the persistence model for a connected store.
// Credentials never live here; CredentialRef points into the vault.
type IntegrationModel struct {
	BaseModel
	TenantID            uuid.UUID                `gorm:"type:uuid;not null;index"`
	Platform            integration.PlatformCode `gorm:"type:varchar(30);not null;index:idx_integration_platform_store,priority:1;uniqueIndex:idx_integration_live_store_host,priority:1,where:status <> 'disconnected' AND store_host <> ''"`
	Name                string                   `gorm:"type:varchar(200);not null"`
	StoreURL            string                   `gorm:"type:varchar(500);index:idx_integration_platform_store,priority:2"`
	StoreHost           string                   `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_integration_live_store_host,priority:2,where:status <> 'disconnected' AND store_host <> ''"`
	ExternalAccountID   string                   `gorm:"type:varchar(200)"`
	CredentialRef       string                   `gorm:"type:varchar(300);not null"`
	WebhookSecretRef    string                   `gorm:"type:varchar(300)"`
	Status              integration.Status       `gorm:"type:varchar(20);not null;index"`
	AutoSync            bool                     `gorm:"not null"`
	SyncIntervalMinutes int                      `gorm:"not null;default:60"`
	LastSyncAt          *time.Time
	LastAttemptAt       *time.Time
	LastError           string `gorm:"type:text"`
	FailureCount        int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration
func (m *IntegrationModel) ToDomain() *integration.Integration {
	return &integration.Integration{
		TenantEntity:        m.tenantEntity(m.TenantID),
		Platform:            m.Platform,
		Name:                m.Name,
		StoreURL:            m.StoreURL,
		ExternalAccountID:   m.ExternalAccountID,
		CredentialRef:       m.CredentialRef,
		WebhookSecretRef:    m.WebhookSecretRef,
		Status:              m.Status,
		AutoSync:            m.AutoSync,
		SyncIntervalMinutes: m.SyncIntervalMinutes,
		LastSyncAt:          m.LastSyncAt,
		LastAttemptAt:       m.LastAttemptAt,
		LastError:           m.LastError,
		FailureCount:        m.FailureCount,
	}
}

// FromDomain populates the model from a domain Integration
func (m *IntegrationModel) FromDomain(i *integration.Integration) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.TenantID = i.TenantID
	m.Platform = i.Platform
	m.Name = i.Name
	m.StoreURL = i.StoreURL
	m.ExternalAccountID = i.ExternalAccountID
	m.CredentialRef = i.CredentialRef
	m.WebhookSecretRef = i.WebhookSecretRef
	m.Status = i.Status
	m.AutoSync = i.AutoSync
	m.SyncIntervalMinutes = i.SyncIntervalMinutes
	m.StoreHost = i.StoreHost()
	m.LastSyncAt = utcPtr(i.LastSyncAt)
	m.LastAttemptAt = utcPtr(i.LastAttemptAt)
	m.LastError = i.LastError
	m.FailureCount = i.FailureCount
}

// IntegrationModelFromDomain creates a model from a domain Integration
func IntegrationModelFromDomain(i *integration.Integration) *IntegrationModel {
	m := &IntegrationModel{}
	m.FromDomain(i)
	return m
}

// SyncRunModel records one execution of a sync job
type SyncRunModel struct {
	BaseModel
	TenantID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	IntegrationID uuid.UUID                 `gorm:"type:uuid;not null;index:idx_sync_run_integration,priority:1"`
	JobID         uuid.UUID                 `gorm:"type:uuid;not null"`
	Kind          integration.SyncKind      `gorm:"type:varchar(20);not null"`
	Trigger       integration.SyncTrigger   `gorm:"type:varchar(20);not null"`
	Status        integration.SyncRunStatus `gorm:"type:varchar(20);not null"`
	Attempts      int                       `gorm:"not null;default:0"`
	Pages         int                       `gorm:"not null;default:0"`
	Created       int                       `gorm:"column:created_count;not null;default:0"`
	Updated       int                       `gorm:"column:updated_count;not null;default:0"`
	Failed        int                       `gorm:"column:failed_count;not null;default:0"`
	Error         string                    `gorm:"type:text"`
	StartedAt     time.Time                 `gorm:"not null;index:idx_sync_run_integration,priority:2"`
	FinishedAt    *time.Time
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts the persistence model to a domain SyncRun
func (m *SyncRunModel) ToDomain() *integration.SyncRun {
	return &integration.SyncRun{
		TenantEntity:  m.tenantEntity(m.TenantID),
		IntegrationID: m.IntegrationID,
		JobID:         m.JobID,
		Kind:          m.Kind,
		Trigger:       m.Trigger,
		Status:        m.Status,
		Attempts:      m.Attempts,
		Pages:         m.Pages,
		Created:       m.Created,
		Updated:       m.Updated,
		Failed:        m.Failed,
		Error:         m.Error,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
	}
}

// FromDomain populates the model from a domain SyncRun
func (m *SyncRunModel) FromDomain(r *integration.SyncRun) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.IntegrationID = r.IntegrationID
	m.JobID = r.JobID
	m.Kind = r.Kind
	m.Trigger = r.Trigger
	m.Status = r.Status
	m.Attempts = r.Attempts
	m.Pages = r.Pages
	m.Created = r.Created
	m.Updated = r.Updated
	m.Failed = r.Failed
	m.Error = r.Error
	m.StartedAt = r.StartedAt.UTC()
	m.FinishedAt = utcPtr(r.FinishedAt)
}

// WebhookEventModel is the durable seen-ID record for webhook deliveries.
// The (platform, event_id) unique index rejects replays across all tenants.
type WebhookEventModel struct {
	BaseModel
	TenantID      uuid.UUID                      `gorm:"type:uuid;not null;index"`
	IntegrationID uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Platform      integration.PlatformCode       `gorm:"type:varchar(30);not null;uniqueIndex:idx_webhook_event_platform_id,priority:1"`
	EventID       string                         `gorm:"type:varchar(200);not null;uniqueIndex:idx_webhook_event_platform_id,priority:2"`
	Topic         string                         `gorm:"type:varchar(100);not null"`
	Status        integration.WebhookEventStatus `gorm:"type:varchar(20);not null"`
	Error         string                         `gorm:"type:text"`
	ReceivedAt    time.Time                      `gorm:"not null"`
	ProcessedAt   *time.Time
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain WebhookEvent
func (m *WebhookEventModel) ToDomain() *integration.WebhookEvent {
	return &integration.WebhookEvent{
		TenantEntity:  m.tenantEntity(m.TenantID),
		IntegrationID: m.IntegrationID,
		Platform:      m.Platform,
		EventID:       m.EventID,
		Topic:         m.Topic,
		Status:        m.Status,
		Error:         m.Error,
		ReceivedAt:    m.ReceivedAt,
		ProcessedAt:   m.ProcessedAt,
	}
}

// FromDomain populates the model from a domain WebhookEvent
func (m *WebhookEventModel) FromDomain(e *integration.WebhookEvent) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.IntegrationID = e.IntegrationID
	m.Platform = e.Platform
	m.EventID = e.EventID
	m.Topic = e.Topic
	m.Status = e.Status
	m.Error = e.Error
	m.ReceivedAt = e.ReceivedAt.UTC()
	m.ProcessedAt = utcPtr(e.ProcessedAt)
}

// CredentialModel stores sealed credential blobs for the local vault provider.
// Ciphertext is XChaCha20-Poly1305 output with the ref bound as associated data.
type CredentialModel struct {
	Ref        string    `gorm:"type:varchar(300);primaryKey"`
	Nonce      []byte    `gorm:"not null"`
	Ciphertext []byte    `gorm:"not null"`
	KeyVersion int       `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "integration_credentials"
}
