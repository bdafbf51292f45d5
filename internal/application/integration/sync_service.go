package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
	// finalizeTimeout bounds the writes that record a run's outcome after its context is done
	finalizeTimeout = 10 * time.Second
)

// SyncMetrics observes sync outcomes
type SyncMetrics interface {
	SyncAttempt(platform integration.PlatformCode, attempt int)
	SyncFinished(platform integration.PlatformCode, kind integration.SyncKind, err error, elapsed time.Duration)
	RecordsSynced(platform integration.PlatformCode, entity string, created, updated, failed int)
}

type nopSyncMetrics struct{}

func (nopSyncMetrics) SyncAttempt(integration.PlatformCode, int) {}
func (nopSyncMetrics) SyncFinished(integration.PlatformCode, integration.SyncKind, error, time.Duration) {
}
func (nopSyncMetrics) RecordsSynced(integration.PlatformCode, string, int, int, int) {}

// RetryPolicy controls how failed attempts are repeated.
// Attempt n (0-based) is followed by a wait of BaseDelay * 2^n.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (p RetryPolicy) delay(attempt int, cause error) time.Duration {
	d := p.BaseDelay << attempt
	var rl *integration.RateLimitError
	if errors.As(cause, &rl) && rl.RetryAfter > d {
		d = rl.RetryAfter
	}
	return d
}

// SyncService pulls a platform's catalog and orders into the tenant's data.
// It is the runner behind the sync dispatcher.
type SyncService struct {
	integrations integration.IntegrationRepository
	runs         integration.SyncRunRepository
	vault        integration.CredentialVault
	connectors   integration.ConnectorFactory
	writer       *PlatformWriter
	policy       RetryPolicy
	metrics      SyncMetrics
	logger       *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// SyncServiceOption configures a SyncService
type SyncServiceOption func(*SyncService)

// WithRetryPolicy overrides the retry policy
func WithRetryPolicy(p RetryPolicy) SyncServiceOption {
	return func(s *SyncService) {
		if p.MaxRetries >= 0 {
			s.policy.MaxRetries = p.MaxRetries
		}
		if p.BaseDelay > 0 {
			s.policy.BaseDelay = p.BaseDelay
		}
	}
}

// WithSyncMetrics attaches a metrics sink
func WithSyncMetrics(m SyncMetrics) SyncServiceOption {
	return func(s *SyncService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSleeper replaces the backoff wait, mainly for tests
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) SyncServiceOption {
	return func(s *SyncService) {
		s.sleep = sleep
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(
	integrations integration.IntegrationRepository,
	runs integration.SyncRunRepository,
	vault integration.CredentialVault,
	connectors integration.ConnectorFactory,
	writer *PlatformWriter,
	log *zap.Logger,
	opts ...SyncServiceOption,
) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SyncService{
		integrations: integrations,
		runs:         runs,
		vault:        vault,
		connectors:   connectors,
		writer:       writer,
		policy:       RetryPolicy{MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay},
		metrics:      nopSyncMetrics{},
		logger:       log,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes job to completion, retrying transient failures with exponential backoff.
// The returned error is the last attempt's error; it has already been recorded on the
// integration and the run.
func (s *SyncService) Run(ctx context.Context, job integration.SyncJob) error {
	ctx, span := telemetry.StartSpan(ctx, "sync.run",
		attribute.String("sync.kind", string(job.Kind)),
		attribute.String("sync.trigger", string(job.Trigger)),
		attribute.String("sync.integration_id", job.IntegrationID.String()))
	err := s.execute(ctx, job)
	telemetry.EndSpan(span, err)
	return err
}

func (s *SyncService) execute(ctx context.Context, job integration.SyncJob) error {
	ctx = logger.WithSyncJob(ctx, job.TenantID.String(), job.IntegrationID.String(), job.ID.String())
	log := logger.For(ctx, s.logger)
	started := s.now()

	in, err := s.integrations.FindByID(ctx, job.IntegrationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return integration.ErrIntegrationNotFound
		}
		return err
	}
	if in.TenantID != job.TenantID {
		log.Warn("Sync job tenant does not own the integration",
			zap.String("integration_tenant_id", in.TenantID.String()))
		return integration.ErrTenantMismatch
	}

	if in.RecoverStaleSync() {
		log.Warn("Recovered integration left in syncing state")
	}
	if err := in.BeginSync(); err != nil {
		return err
	}
	if err := s.integrations.Save(ctx, in); err != nil {
		return err
	}

	run := integration.NewSyncRun(job)
	if err := s.runs.Create(ctx, run); err != nil {
		s.finish(ctx, in, run, err)
		return err
	}

	log.Info("Sync started",
		zap.String("platform", string(in.Platform)),
		zap.String("kind", string(job.Kind)),
		zap.String("trigger", string(job.Trigger)))

	err = s.runWithRetries(ctx, in, run, job.Kind)
	s.finish(ctx, in, run, err)
	s.metrics.SyncFinished(in.Platform, job.Kind, err, s.now().Sub(started))

	if err != nil {
		log.Error("Sync failed",
			zap.Int("attempts", run.Attempts),
			zap.Int("failure_count", in.FailureCount),
			zap.Error(err))
		return err
	}
	log.Info("Sync completed",
		zap.Int("attempts", run.Attempts),
		zap.Int("pages", run.Pages),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("failed", run.Failed),
		zap.Duration("duration", run.Duration()))
	return nil
}

func (s *SyncService) connect(ctx context.Context, in *integration.Integration) (integration.Connector, error) {
	creds, err := s.vault.Get(ctx, in.CredentialRef)
	if err != nil {
		return nil, err
	}
	return s.connectors.NewConnector(in, creds)
}

// runWithRetries loads credentials per attempt; vault errors share the retry classification
func (s *SyncService) runWithRetries(ctx context.Context, in *integration.Integration, run *integration.SyncRun, kind integration.SyncKind) error {
	log := logger.For(ctx, s.logger)
	for attempt := 0; ; attempt++ {
		run.BeginAttempt()
		s.metrics.SyncAttempt(in.Platform, run.Attempts)

		connector, err := s.connect(ctx, in)
		if err == nil {
			err = s.syncOnce(ctx, in, run, connector, kind)
		}
		if err == nil {
			return nil
		}
		if !integration.IsRetryable(err) || attempt >= s.policy.MaxRetries || ctx.Err() != nil {
			return err
		}

		wait := s.policy.delay(attempt, err)
		log.Warn("Sync attempt failed, retrying",
			zap.Int("attempt", run.Attempts),
			zap.Duration("backoff", wait),
			zap.Error(err))
		run.Error = err.Error()
		if saveErr := s.runs.Save(ctx, run); saveErr != nil {
			log.Warn("Failed to record sync attempt", zap.Error(saveErr))
		}
		if sleepErr := s.sleep(ctx, wait); sleepErr != nil {
			return fmt.Errorf("%w (last error: %v)", sleepErr, err)
		}
	}
}

// syncOnce is one full attempt; pagination restarts from the first page
func (s *SyncService) syncOnce(ctx context.Context, in *integration.Integration, run *integration.SyncRun, connector integration.Connector, kind integration.SyncKind) error {
	if kind.IncludesProducts() {
		if err := s.syncProducts(ctx, in, run, connector); err != nil {
			return err
		}
	}
	if kind.IncludesOrders() {
		if err := s.syncOrders(ctx, in, run, connector); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) syncProducts(ctx context.Context, in *integration.Integration, run *integration.SyncRun, connector integration.Connector) error {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := connector.FetchProducts(ctx, cursor)
		if err != nil {
			return err
		}

		var created, updated, failed int
		for _, remote := range page.Products {
			isNew, err := s.writer.UpsertProduct(ctx, in, remote)
			switch {
			case err == nil && isNew:
				created++
			case err == nil:
				updated++
			case isRecordError(err):
				failed++
				logger.For(ctx, s.logger).Warn("Skipping remote product",
					zap.String("external_id", remote.ExternalID), zap.Error(err))
			default:
				return err
			}
		}
		run.RecordPage(created, updated, failed)
		s.metrics.RecordsSynced(in.Platform, "product", created, updated, failed)

		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (s *SyncService) syncOrders(ctx context.Context, in *integration.Integration, run *integration.SyncRun, connector integration.Connector) error {
	var since time.Time
	last, err := s.runs.LastSuccessfulStart(ctx, in.TenantID, in.ID, integration.SyncKindOrders)
	if err != nil {
		return err
	}
	if last != nil {
		since = *last
	}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := connector.FetchOrders(ctx, since, cursor)
		if err != nil {
			return err
		}

		var created, updated, failed int
		for _, remote := range page.Orders {
			isNew, err := s.writer.UpsertOrder(ctx, in, remote)
			switch {
			case err == nil && isNew:
				created++
			case err == nil:
				updated++
			case isRecordError(err):
				failed++
				logger.For(ctx, s.logger).Warn("Skipping remote order",
					zap.String("external_id", remote.ExternalID), zap.Error(err))
			default:
				return err
			}
		}
		run.RecordPage(created, updated, failed)
		s.metrics.RecordsSynced(in.Platform, "order", created, updated, failed)

		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

// isRecordError reports whether err concerns one remote record rather than the whole sync
func isRecordError(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr)
}

// finish records the outcome even when ctx has been cancelled or timed out
func (s *SyncService) finish(ctx context.Context, in *integration.Integration, run *integration.SyncRun, cause error) {
	now := s.now()
	if cause != nil {
		in.FailSync(now, cause)
		run.Fail(now, cause)
	} else {
		in.CompleteSync(now)
		run.Succeed(now)
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	log := logger.For(ctx, s.logger)
	if err := s.integrations.Save(saveCtx, in); err != nil {
		if errors.Is(err, integration.ErrIntegrationNotFound) {
			log.Info("Integration deleted while syncing, outcome not recorded")
			return
		}
		log.Error("Failed to record integration sync status", zap.Error(err))
	}
	if err := s.runs.Save(saveCtx, run); err != nil {
		log.Error("Failed to record sync run", zap.Error(err))
	}
}
