package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CredentialsInput carries the platform secrets supplied when connecting.
// Which fields are required depends on the platform.
type CredentialsInput struct {
	AccessToken    string `json:"access_token,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
	ConsumerKey    string `json:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	ClientSecret   string `json:"client_secret,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	MarketplaceID  string `json:"marketplace_id,omitempty"`
	Region         string `json:"region,omitempty"`
	SellerID       string `json:"seller_id,omitempty"`
	WebhookSecret  string `json:"webhook_secret,omitempty"`
}

// ToDomain converts the input into vault credentials
func (c CredentialsInput) ToDomain() integration.Credentials {
	return integration.Credentials{
		AccessToken:    c.AccessToken,
		APIVersion:     c.APIVersion,
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		RefreshToken:   c.RefreshToken,
		MarketplaceID:  c.MarketplaceID,
		Region:         c.Region,
		SellerID:       c.SellerID,
		WebhookSecret:  c.WebhookSecret,
	}
}

// ConnectIntegrationRequest connects a tenant to a platform store
type ConnectIntegrationRequest struct {
	Platform            string           `json:"platform" binding:"required,platform_code"`
	Name                string           `json:"name" binding:"max=100"`
	StoreURL            string           `json:"store_url" binding:"max=255"`
	Credentials         CredentialsInput `json:"credentials"`
	AutoSync            bool             `json:"auto_sync"`
	SyncIntervalMinutes int              `json:"sync_interval_minutes" binding:"min=0"`
	// SkipInitialSync suppresses the sync normally queued right after connecting
	SkipInitialSync bool `json:"skip_initial_sync"`
}

// TriggerSyncRequest asks for an on-demand sync; an empty kind means full
type TriggerSyncRequest struct {
	Kind string `json:"kind" binding:"omitempty,oneof=products orders full"`
}

// IntegrationListFilter represents query parameters for listing integrations
type IntegrationListFilter struct {
	Platform string `form:"platform"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// SyncRunListFilter represents query parameters for listing sync runs
type SyncRunListFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// IntegrationResponse represents an integration in API responses. Secrets never appear here.
type IntegrationResponse struct {
	ID                  uuid.UUID                `json:"id"`
	TenantID            uuid.UUID                `json:"tenant_id"`
	Platform            integration.PlatformCode `json:"platform"`
	PlatformDisplayName string                   `json:"platform_display_name"`
	Name                string                   `json:"name"`
	StoreURL            string                   `json:"store_url,omitempty"`
	ExternalAccountID   string                   `json:"external_account_id,omitempty"`
	Status              integration.Status       `json:"status"`
	AutoSync            bool                     `json:"auto_sync"`
	SyncIntervalMinutes int                      `json:"sync_interval_minutes"`
	LastSyncAt          *time.Time               `json:"last_sync_at,omitempty"`
	LastAttemptAt       *time.Time               `json:"last_attempt_at,omitempty"`
	NextSyncAt          *time.Time               `json:"next_sync_at,omitempty"`
	LastError           string                   `json:"last_error,omitempty"`
	FailureCount        int                      `json:"failure_count"`
	SupportsWebhooks    bool                     `json:"supports_webhooks"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// SyncRunResponse represents one sync run in API responses
type SyncRunResponse struct {
	ID            uuid.UUID                 `json:"id"`
	IntegrationID uuid.UUID                 `json:"integration_id"`
	JobID         uuid.UUID                 `json:"job_id"`
	Kind          integration.SyncKind      `json:"kind"`
	Trigger       integration.SyncTrigger   `json:"trigger"`
	Status        integration.SyncRunStatus `json:"status"`
	Attempts      int                       `json:"attempts"`
	Pages         int                       `json:"pages"`
	Created       int                       `json:"created"`
	Updated       int                       `json:"updated"`
	Failed        int                       `json:"failed"`
	Error         string                    `json:"error,omitempty"`
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    *time.Time                `json:"finished_at,omitempty"`
	DurationMs    int64                     `json:"duration_ms"`
}

// SyncAcceptedResponse is returned when a sync job has been queued
type SyncAcceptedResponse struct {
	JobID         uuid.UUID               `json:"job_id"`
	IntegrationID uuid.UUID               `json:"integration_id"`
	Kind          integration.SyncKind    `json:"kind"`
	Trigger       integration.SyncTrigger `json:"trigger"`
	Status        string                  `json:"status"`
	EnqueuedAt    time.Time               `json:"enqueued_at"`
}

// ConnectionTestResponse reports the outcome of a connector ping
type ConnectionTestResponse struct {
	OK                bool   `json:"ok"`
	ExternalAccountID string `json:"external_account_id,omitempty"`
	Error             string `json:"error,omitempty"`
	LatencyMs         int64  `json:"latency_ms"`
}

// WebhookResult is the acknowledgement sent back to the platform
type WebhookResult struct {
	EventID   string                         `json:"event_id"`
	Topic     string                         `json:"topic"`
	Action    integration.WebhookAction      `json:"action"`
	Status    integration.WebhookEventStatus `json:"status,omitempty"`
	Duplicate bool                           `json:"duplicate"`
}

// ---------------------------------------------------------------------------
// Converters
// ---------------------------------------------------------------------------

// ToIntegrationResponse converts a domain integration to a response DTO
func ToIntegrationResponse(i *integration.Integration) IntegrationResponse {
	resp := IntegrationResponse{
		ID:                  i.ID,
		TenantID:            i.TenantID,
		Platform:            i.Platform,
		PlatformDisplayName: i.Platform.DisplayName(),
		Name:                i.Name,
		StoreURL:            i.StoreURL,
		ExternalAccountID:   i.ExternalAccountID,
		Status:              i.Status,
		AutoSync:            i.AutoSync,
		SyncIntervalMinutes: i.SyncIntervalMinutes,
		LastSyncAt:          i.LastSyncAt,
		LastAttemptAt:       i.LastAttemptAt,
		LastError:           i.LastError,
		FailureCount:        i.FailureCount,
		SupportsWebhooks:    i.Platform.SupportsWebhooks(),
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
	}
	if i.AutoSync && i.Status != integration.StatusDisconnected {
		resp.NextSyncAt = i.NextSyncAt()
	}
	return resp
}

// ToSyncRunResponse converts a domain sync run to a response DTO
func ToSyncRunResponse(r *integration.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:            r.ID,
		IntegrationID: r.IntegrationID,
		JobID:         r.JobID,
		Kind:          r.Kind,
		Trigger:       r.Trigger,
		Status:        r.Status,
		Attempts:      r.Attempts,
		Pages:         r.Pages,
		Created:       r.Created,
		Updated:       r.Updated,
		Failed:        r.Failed,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DurationMs:    r.Duration().Milliseconds(),
	}
}

// ToSyncAcceptedResponse describes a queued job
func ToSyncAcceptedResponse(job integration.SyncJob) SyncAcceptedResponse {
	return SyncAcceptedResponse{
		JobID:         job.ID,
		IntegrationID: job.IntegrationID,
		Kind:          job.Kind,
		Trigger:       job.Trigger,
		Status:        string(integration.SyncRunQueued),
		EnqueuedAt:    job.EnqueuedAt,
	}
}
