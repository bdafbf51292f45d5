package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// SyncKind selects what a sync pulls
type SyncKind string

const (
	SyncKindProducts SyncKind = "products"
	SyncKindOrders   SyncKind = "orders"
	SyncKindFull     SyncKind = "full"
)

// IsValid returns true if the kind is known
func (k SyncKind) IsValid() bool {
	return k == SyncKindProducts || k == SyncKindOrders || k == SyncKindFull
}

// IncludesProducts reports whether the kind pulls the catalog
func (k SyncKind) IncludesProducts() bool {
	return k == SyncKindProducts || k == SyncKindFull
}

// IncludesOrders reports whether the kind pulls orders
func (k SyncKind) IncludesOrders() bool {
	return k == SyncKindOrders || k == SyncKindFull
}

// SyncTrigger records what started a sync
type SyncTrigger string

const (
	SyncTriggerManual   SyncTrigger = "manual"
	SyncTriggerSchedule SyncTrigger = "schedule"
	SyncTriggerWebhook  SyncTrigger = "webhook"
	SyncTriggerConnect  SyncTrigger = "connect"
)

// SyncRunStatus is the state of a single run
type SyncRunStatus string

const (
	SyncRunQueued    SyncRunStatus = "queued"
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunSucceeded SyncRunStatus = "succeeded"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncJob is the unit of work handed to the dispatcher
type SyncJob struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	IntegrationID uuid.UUID
	Kind          SyncKind
	Trigger       SyncTrigger
	EnqueuedAt    time.Time
}

// NewSyncJob creates a job; an empty kind means a full sync
func NewSyncJob(tenantID, integrationID uuid.UUID, kind SyncKind, trigger SyncTrigger) (SyncJob, error) {
	if kind == "" {
		kind = SyncKindFull
	}
	if !kind.IsValid() {
		return SyncJob{}, shared.NewDomainError("INVALID_SYNC_KIND", "Sync kind must be one of products, orders, full")
	}
	if tenantID == uuid.Nil || integrationID == uuid.Nil {
		return SyncJob{}, shared.ErrInvalidInput
	}
	return SyncJob{
		ID:            uuid.New(),
		TenantID:      tenantID,
		IntegrationID: integrationID,
		Kind:          kind,
		Trigger:       trigger,
		EnqueuedAt:    time.Now(),
	}, nil
}

// SyncRun is the persisted record of one sync job, across all of its attempts
type SyncRun struct {
	shared.TenantEntity
	IntegrationID uuid.UUID
	JobID         uuid.UUID
	Kind          SyncKind
	Trigger       SyncTrigger
	Status        SyncRunStatus
	Attempts      int
	Pages         int
	Created       int
	Updated       int
	Failed        int
	Error         string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// NewSyncRun starts a run for job
func NewSyncRun(job SyncJob) *SyncRun {
	run := &SyncRun{
		TenantEntity:  shared.NewTenantEntity(job.TenantID),
		IntegrationID: job.IntegrationID,
		JobID:         job.ID,
		Kind:          job.Kind,
		Trigger:       job.Trigger,
		Status:        SyncRunRunning,
	}
	run.StartedAt = run.CreatedAt
	return run
}

// BeginAttempt resets per-attempt counters; each attempt restarts pagination
func (r *SyncRun) BeginAttempt() {
	r.Attempts++
	r.Pages = 0
	r.Created = 0
	r.Updated = 0
	r.Failed = 0
	r.Touch()
}

// RecordPage adds one page's outcome
func (r *SyncRun) RecordPage(created, updated, failed int) {
	r.Pages++
	r.Created += created
	r.Updated += updated
	r.Failed += failed
	r.Touch()
}

// Succeed finishes the run
func (r *SyncRun) Succeed(now time.Time) {
	r.Status = SyncRunSucceeded
	r.Error = ""
	r.FinishedAt = &now
	r.Touch()
}

// Fail finishes the run with cause
func (r *SyncRun) Fail(now time.Time, cause error) {
	r.Status = SyncRunFailed
	if cause != nil {
		r.Error = cause.Error()
	}
	r.FinishedAt = &now
	r.Touch()
}

// Duration is the wall time of a finished run
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
