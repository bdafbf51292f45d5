package integration

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// Status is the connection/sync state of an integration
type Status string

const (
	StatusPending      Status = "pending"
	StatusConnected    Status = "connected"
	StatusSyncing      Status = "syncing"
	StatusSynced       Status = "synced"
	StatusFailed       Status = "failed"
	StatusDisconnected Status = "disconnected"
)

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConnected, StatusSyncing, StatusSynced, StatusFailed, StatusDisconnected:
		return true
	default:
		return false
	}
}

const (
	DefaultSyncIntervalMinutes = 60
	MinSyncIntervalMinutes     = 5
	maxLastErrorLength         = 1000

	// MaxFailureBackoff caps how far repeated scheduled failures push the next attempt
	MaxFailureBackoff = 24 * time.Hour
)

// Integration is a tenant's connection to an external commerce platform.
// Secrets are never stored on the integration itself; CredentialRef points into the vault.
type Integration struct {
	shared.TenantEntity
	Platform            PlatformCode
	Name                string
	StoreURL            string
	ExternalAccountID   string
	CredentialRef       string
	WebhookSecretRef    string
	Status              Status
	AutoSync            bool
	SyncIntervalMinutes int
	LastSyncAt          *time.Time
	LastAttemptAt       *time.Time
	LastError           string
	FailureCount        int
}

// CredentialRefFor builds the vault reference for an integration's credentials
func CredentialRefFor(tenantID, integrationID uuid.UUID) string {
	return fmt.Sprintf("tenants/%s/integrations/%s", tenantID, integrationID)
}

// NewIntegration creates a pending integration
func NewIntegration(tenantID uuid.UUID, platform PlatformCode, name, storeURL string) (*Integration, error) {
	if !platform.IsValid() {
		return nil, ErrInvalidPlatform
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = platform.DisplayName()
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Integration name cannot exceed 100 characters")
	}

	normalized := ""
	if storeURL != "" || platform.RequiresStoreURL() {
		var err error
		normalized, err = NormalizeStoreURL(storeURL)
		if err != nil {
			return nil, err
		}
	}

	i := &Integration{
		TenantEntity:        shared.NewTenantEntity(tenantID),
		Platform:            platform,
		Name:                name,
		StoreURL:            normalized,
		Status:              StatusPending,
		SyncIntervalMinutes: DefaultSyncIntervalMinutes,
	}
	i.CredentialRef = CredentialRefFor(tenantID, i.ID)
	i.WebhookSecretRef = i.CredentialRef
	return i, nil
}

// NormalizeStoreURL returns scheme://host[/path] without a trailing slash.
// A bare host gets https.
func NormalizeStoreURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidStoreURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidStoreURL
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", ErrInvalidStoreURL
	}
	return u.Scheme + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.Path, "/"), nil
}

// StoreHost returns the lower-cased host of StoreURL, e.g. "acme.myshopify.com"
func (i *Integration) StoreHost() string {
	u, err := url.Parse(i.StoreURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// MarkConnected records a successful credential check
func (i *Integration) MarkConnected(externalAccountID string) {
	if externalAccountID != "" {
		i.ExternalAccountID = externalAccountID
	}
	i.Status = StatusConnected
	i.LastError = ""
	i.Touch()
}

// CanSync reports whether a new sync may begin
func (i *Integration) CanSync() error {
	switch i.Status {
	case StatusDisconnected:
		return ErrIntegrationDisconnected
	case StatusSyncing:
		return ErrSyncAlreadyInProgress
	}
	return nil
}

// BeginSync moves the integration into syncing
func (i *Integration) BeginSync() error {
	if err := i.CanSync(); err != nil {
		return err
	}
	i.Status = StatusSyncing
	i.Touch()
	return nil
}

// RecoverStaleSync clears a syncing status left by a run that never finished,
// e.g. after a crash. Callers must hold the per-integration run slot.
func (i *Integration) RecoverStaleSync() bool {
	if i.Status != StatusSyncing {
		return false
	}
	i.Status = StatusFailed
	i.LastError = "previous sync was interrupted"
	i.Touch()
	return true
}

// CompleteSync records a successful sync at now
func (i *Integration) CompleteSync(now time.Time) {
	i.Status = StatusSynced
	i.LastSyncAt = &now
	i.LastAttemptAt = &now
	i.LastError = ""
	i.FailureCount = 0
	i.Touch()
}

// FailSync records a sync that exhausted its retries at now
func (i *Integration) FailSync(now time.Time, cause error) {
	i.Status = StatusFailed
	i.FailureCount++
	i.LastAttemptAt = &now
	if cause != nil {
		msg := cause.Error()
		if len(msg) > maxLastErrorLength {
			msg = msg[:maxLastErrorLength]
		}
		i.LastError = msg
	}
	i.Touch()
}

// Disconnect stops all syncing; credentials should be removed from the vault by the caller
func (i *Integration) Disconnect() {
	i.Status = StatusDisconnected
	i.AutoSync = false
	i.Touch()
}

// SetSchedule configures automatic syncing
func (i *Integration) SetSchedule(autoSync bool, intervalMinutes int) error {
	if intervalMinutes == 0 {
		intervalMinutes = DefaultSyncIntervalMinutes
	}
	if intervalMinutes < MinSyncIntervalMinutes {
		return shared.NewDomainError("INVALID_SYNC_INTERVAL",
			fmt.Sprintf("Sync interval must be at least %d minutes", MinSyncIntervalMinutes))
	}
	i.AutoSync = autoSync
	i.SyncIntervalMinutes = intervalMinutes
	i.Touch()
	return nil
}

// DueForSync reports whether a scheduled sync should run at now
func (i *Integration) DueForSync(now time.Time) bool {
	if !i.AutoSync || i.CanSync() != nil || i.Status == StatusPending {
		return false
	}
	next := i.NextSyncAt()
	return next == nil || !now.Before(*next)
}

// NextSyncAt returns when the next scheduled sync is due, or nil when it is due now.
// After consecutive failures the wait doubles per failure, starting at one
// interval after the last attempt and capped at MaxFailureBackoff.
func (i *Integration) NextSyncAt() *time.Time {
	interval := time.Duration(i.SyncIntervalMinutes) * time.Minute
	var next *time.Time
	if i.LastSyncAt != nil {
		t := i.LastSyncAt.Add(interval)
		next = &t
	}
	if i.FailureCount > 0 && i.LastAttemptAt != nil {
		retry := i.LastAttemptAt.Add(failureBackoff(interval, i.FailureCount))
		if next == nil || retry.After(*next) {
			next = &retry
		}
	}
	return next
}

func failureBackoff(interval time.Duration, failures int) time.Duration {
	backoff := interval
	for n := 1; n < failures && backoff < MaxFailureBackoff; n++ {
		backoff *= 2
	}
	return min(backoff, max(MaxFailureBackoff, interval))
}
