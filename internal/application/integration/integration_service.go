package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SyncSubmitter accepts sync jobs without waiting for them to run
type SyncSubmitter interface {
	Submit(job integration.SyncJob) error
	// InFlight reports whether a job for the integration is queued or running
	InFlight(integrationID uuid.UUID) bool
}

// ConnectorCache drops per-integration connector state such as cached tokens and throttles
type ConnectorCache interface {
	Forget(ctx context.Context, integrationID uuid.UUID)
}

// IntegrationService manages a tenant's platform connections
type IntegrationService struct {
	repo       integration.IntegrationRepository
	runs       integration.SyncRunRepository
	vault      integration.CredentialVault
	connectors integration.ConnectorFactory
	cache      ConnectorCache
	submitter  SyncSubmitter
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	repo integration.IntegrationRepository,
	runs integration.SyncRunRepository,
	vault integration.CredentialVault,
	connectors integration.ConnectorFactory,
	cache ConnectorCache,
	submitter SyncSubmitter,
) *IntegrationService {
	return &IntegrationService{
		repo:       repo,
		runs:       runs,
		vault:      vault,
		connectors: connectors,
		cache:      cache,
		submitter:  submitter,
	}
}

// Connect verifies the credentials against the platform, stores them in the vault and
// records the integration. An initial full sync is queued unless the request opts out.
func (s *IntegrationService) Connect(ctx context.Context, tenantID uuid.UUID, req ConnectIntegrationRequest) (*IntegrationResponse, error) {
	platform := integration.PlatformCode(req.Platform)
	in, err := integration.NewIntegration(tenantID, platform, req.Name, req.StoreURL)
	if err != nil {
		return nil, err
	}
	if err := in.SetSchedule(req.AutoSync, req.SyncIntervalMinutes); err != nil {
		return nil, err
	}

	creds := req.Credentials.ToDomain()
	if err := creds.Validate(platform); err != nil {
		return nil, err
	}

	// webhooks resolve by store host, so a host may be live for one tenant only
	if host := in.StoreHost(); host != "" {
		exists, err := s.repo.ExistsForStoreHost(ctx, platform, host)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "This store is already connected")
		}
	}

	connector, err := s.connectors.NewConnector(in, creds)
	if err != nil {
		return nil, err
	}
	accountID, err := connector.Ping(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.vault.Put(ctx, in.CredentialRef, creds); err != nil {
		return nil, err
	}
	in.MarkConnected(accountID)
	if err := s.repo.Create(ctx, in); err != nil {
		if delErr := s.vault.Delete(ctx, in.CredentialRef); delErr != nil {
			logger.L(ctx).Warn("Failed to remove credentials of unsaved integration",
				zap.String("integration_id", in.ID.String()), zap.Error(delErr))
		}
		return nil, err
	}

	logger.L(ctx).Info("Integration connected",
		zap.String("integration_id", in.ID.String()),
		zap.String("platform", string(in.Platform)),
		zap.String("store_host", in.StoreHost()))

	if !req.SkipInitialSync {
		s.submitInitialSync(ctx, in)
	}

	response := ToIntegrationResponse(in)
	return &response, nil
}

func (s *IntegrationService) submitInitialSync(ctx context.Context, in *integration.Integration) {
	job, err := integration.NewSyncJob(in.TenantID, in.ID, integration.SyncKindFull, integration.SyncTriggerConnect)
	if err == nil {
		err = s.submitter.Submit(job)
	}
	if err != nil {
		logger.L(ctx).Warn("Initial sync not queued",
			zap.String("integration_id", in.ID.String()), zap.Error(err))
	}
}

// GetByID retrieves an integration
func (s *IntegrationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*IntegrationResponse, error) {
	in, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToIntegrationResponse(in)
	return &response, nil
}

// List retrieves a page of integrations
func (s *IntegrationService) List(ctx context.Context, tenantID uuid.UUID, filter IntegrationListFilter) (shared.Paginated[IntegrationResponse], error) {
	domainFilter := integration.IntegrationFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Platform: integration.PlatformCode(filter.Platform),
		Status:   integration.Status(filter.Status),
	}

	items, total, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return shared.Paginated[IntegrationResponse]{}, err
	}
	responses := make([]IntegrationResponse, len(items))
	for i := range items {
		responses[i] = ToIntegrationResponse(&items[i])
	}
	return shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Delete disconnects an integration, removes its credentials and deletes it.
// Synced products and orders stay. An integration with a queued or running
// sync cannot be deleted until the job finishes.
func (s *IntegrationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	in, err := s.find(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if s.submitter.InFlight(in.ID) {
		return integration.ErrSyncAlreadyInProgress
	}
	if err := s.vault.Delete(ctx, in.CredentialRef); err != nil && !errors.Is(err, integration.ErrCredentialsNotFound) {
		return err
	}
	s.cache.Forget(ctx, in.ID)
	if err := s.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}

	logger.L(ctx).Info("Integration deleted",
		zap.String("integration_id", in.ID.String()),
		zap.String("platform", string(in.Platform)))
	return nil
}

// TestConnection pings the platform with the stored credentials.
// A platform failure is reported in the response rather than as an error.
func (s *IntegrationService) TestConnection(ctx context.Context, tenantID, id uuid.UUID) (*ConnectionTestResponse, error) {
	in, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Status == integration.StatusDisconnected {
		return nil, integration.ErrIntegrationDisconnected
	}
	creds, err := s.vault.Get(ctx, in.CredentialRef)
	if err != nil {
		return nil, err
	}
	connector, err := s.connectors.NewConnector(in, creds)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	accountID, err := connector.Ping(ctx)
	resp := &ConnectionTestResponse{LatencyMs: time.Since(started).Milliseconds()}
	if err != nil {
		resp.Error = err.Error()
		return resp, nil
	}
	resp.OK = true
	resp.ExternalAccountID = accountID
	return resp, nil
}

// TriggerSync queues an on-demand sync. The job runs in the background.
func (s *IntegrationService) TriggerSync(ctx context.Context, tenantID, id uuid.UUID, req TriggerSyncRequest) (*SyncAcceptedResponse, error) {
	in, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	// A persisted syncing status may be stale; the dispatcher owns the in-flight check.
	if in.Status == integration.StatusDisconnected {
		return nil, integration.ErrIntegrationDisconnected
	}

	job, err := integration.NewSyncJob(tenantID, in.ID, integration.SyncKind(req.Kind), integration.SyncTriggerManual)
	if err != nil {
		return nil, err
	}
	if err := s.submitter.Submit(job); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Sync queued",
		zap.String("integration_id", in.ID.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)))

	response := ToSyncAcceptedResponse(job)
	return &response, nil
}

// ListRuns retrieves the sync history of an integration, newest first
func (s *IntegrationService) ListRuns(ctx context.Context, tenantID, id uuid.UUID, filter SyncRunListFilter) (shared.Paginated[SyncRunResponse], error) {
	if _, err := s.find(ctx, tenantID, id); err != nil {
		return shared.Paginated[SyncRunResponse]{}, err
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "started_at",
		OrderDir: "desc",
	}.Normalize()

	runs, total, err := s.runs.FindByIntegration(ctx, tenantID, id, domainFilter)
	if err != nil {
		return shared.Paginated[SyncRunResponse]{}, err
	}
	responses := make([]SyncRunResponse, len(runs))
	for i := range runs {
		responses[i] = ToSyncRunResponse(&runs[i])
	}
	return shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize), nil
}

func (s *IntegrationService) find(ctx context.Context, tenantID, id uuid.UUID) (*integration.Integration, error) {
	in, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return in, nil
}
