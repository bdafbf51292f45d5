package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/integration"
)

// AutoSyncSource lists integrations with automatic sync enabled
type AutoSyncSource interface {
	FindAutoSync(ctx context.Context) ([]integration.Integration, error)
}

// Submitter accepts sync jobs
type Submitter interface {
	Submit(job integration.SyncJob) error
}

// SyncCronTrigger periodically submits scheduled syncs for integrations whose
// interval has elapsed.
type SyncCronTrigger struct {
	source    AutoSyncSource
	submitter Submitter
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	isRunning bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewSyncCronTrigger creates a trigger that checks every interval
func NewSyncCronTrigger(source AutoSyncSource, submitter Submitter, interval time.Duration, logger *zap.Logger) (*SyncCronTrigger, error) {
	if interval <= 0 {
		return nil, ErrInvalidConfig
	}
	return &SyncCronTrigger{
		source:    source,
		submitter: submitter,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start begins the check loop
func (t *SyncCronTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go t.run(ctx)

	t.logger.Info("Sync cron trigger started", zap.Duration("interval", t.interval))
	return nil
}

// Stop stops the check loop and waits for an in-progress check to finish
func (t *SyncCronTrigger) Stop() {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return
	}
	t.isRunning = false
	close(t.stopCh)
	done := t.doneCh
	t.mu.Unlock()

	<-done
	t.logger.Info("Sync cron trigger stopped")
}

func (t *SyncCronTrigger) run(ctx context.Context) {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick runs a single check and returns the number of jobs submitted
func (t *SyncCronTrigger) Tick(ctx context.Context) int {
	integrations, err := t.source.FindAutoSync(ctx)
	if err != nil {
		t.logger.Error("Failed to list auto-sync integrations", zap.Error(err))
		return 0
	}

	now := t.now()
	submitted := 0
	for i := range integrations {
		integ := &integrations[i]
		if !integ.DueForSync(now) {
			continue
		}
		job, err := integration.NewSyncJob(integ.TenantID, integ.ID, integration.SyncKindFull, integration.SyncTriggerSchedule)
		if err != nil {
			t.logger.Error("Failed to build scheduled sync job",
				zap.String("integration_id", integ.ID.String()),
				zap.Error(err),
			)
			continue
		}

		switch err := t.submitter.Submit(job); {
		case err == nil:
			submitted++
		case errors.Is(err, integration.ErrSyncAlreadyInProgress):
			t.logger.Debug("Scheduled sync skipped, already in progress",
				zap.String("integration_id", integ.ID.String()),
			)
		case errors.Is(err, ErrJobQueueFull):
			t.logger.Warn("Sync queue full, remaining scheduled syncs deferred to next tick",
				zap.Int("submitted", submitted),
			)
			return submitted
		default:
			t.logger.Error("Failed to submit scheduled sync",
				zap.String("integration_id", integ.ID.String()),
				zap.Error(err),
			)
		}
	}

	if submitted > 0 {
		t.logger.Info("Scheduled syncs submitted", zap.Int("count", submitted))
	}
	return submitted
}
