// Package scheduler runs platform syncs in the background.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
)

// SyncRunner executes one sync job to completion, retries included
type SyncRunner interface {
	Run(ctx context.Context, job integration.SyncJob) error
}

// DispatcherMetrics observes dispatcher activity
type DispatcherMetrics interface {
	JobSubmitted(job integration.SyncJob)
	JobRejected(job integration.SyncJob, reason string)
	JobFinished(job integration.SyncJob, err error, elapsed time.Duration)
	QueueDepth(n int)
}

type nopMetrics struct{}

func (nopMetrics) JobSubmitted(integration.SyncJob)                       {}
func (nopMetrics) JobRejected(integration.SyncJob, string)                {}
func (nopMetrics) JobFinished(integration.SyncJob, error, time.Duration) {}
func (nopMetrics) QueueDepth(int)                                         {}

// DispatcherConfig holds configuration for the sync dispatcher
type DispatcherConfig struct {
	// Workers is the number of syncs that may run at once
	Workers int
	// QueueSize bounds jobs waiting for a worker
	QueueSize int
	// JobTimeout caps a single job, retries and backoff included
	JobTimeout time.Duration
}

// DefaultDispatcherConfig returns default configuration
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:    4,
		QueueSize:  100,
		JobTimeout: 30 * time.Minute,
	}
}

// DispatcherConfigFrom maps sync settings onto dispatcher configuration
func DispatcherConfigFrom(cfg config.SyncConfig) DispatcherConfig {
	return DispatcherConfig{
		Workers:    cfg.Workers,
		QueueSize:  cfg.QueueSize,
		JobTimeout: cfg.JobTimeout,
	}
}

// Validate validates the configuration
func (c DispatcherConfig) Validate() error {
	if c.Workers <= 0 || c.QueueSize <= 0 || c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncDispatcher is a bounded worker pool for sync jobs. Submit never blocks:
// callers get ErrJobQueueFull instead of waiting. At most one job per
// integration is queued or running at any time.
type SyncDispatcher struct {
	config  DispatcherConfig
	runner  SyncRunner
	logger  *zap.Logger
	metrics DispatcherMetrics

	jobs      chan integration.SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  map[uuid.UUID]uuid.UUID // integration ID -> job ID
}

// DispatcherOption configures a SyncDispatcher
type DispatcherOption func(*SyncDispatcher)

// WithMetrics attaches a metrics observer
func WithMetrics(m DispatcherMetrics) DispatcherOption {
	return func(d *SyncDispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// NewSyncDispatcher creates a new dispatcher
func NewSyncDispatcher(cfg DispatcherConfig, runner SyncRunner, logger *zap.Logger, opts ...DispatcherOption) (*SyncDispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &SyncDispatcher{
		config:   cfg,
		runner:   runner,
		logger:   logger,
		metrics:  nopMetrics{},
		jobs:     make(chan integration.SyncJob, cfg.QueueSize),
		inFlight: make(map[uuid.UUID]uuid.UUID),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start launches the workers. Jobs run under a context detached from ctx's
// cancellation so that a request context never aborts a background sync.
func (d *SyncDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isRunning {
		return nil
	}
	d.isRunning = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx, i)
	}

	d.logger.Info("Sync dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Int("queue_size", d.config.QueueSize),
		zap.Duration("job_timeout", d.config.JobTimeout),
	)
	return nil
}

// Stop refuses new jobs and lets workers drain the queue. If ctx expires
// first, running jobs are cancelled and ctx.Err() is returned.
func (d *SyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Sync dispatcher stopped gracefully")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn("Sync dispatcher stop timed out; running syncs were cancelled")
		return ctx.Err()
	}
}

// Submit enqueues job and returns immediately
func (d *SyncDispatcher) Submit(job integration.SyncJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isRunning {
		return ErrDispatcherNotRunning
	}
	if _, busy := d.inFlight[job.IntegrationID]; busy {
		d.metrics.JobRejected(job, "in_progress")
		return integration.ErrSyncAlreadyInProgress
	}

	select {
	case d.jobs <- job:
		d.inFlight[job.IntegrationID] = job.ID
		d.metrics.JobSubmitted(job)
		d.metrics.QueueDepth(len(d.jobs))
		d.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("integration_id", job.IntegrationID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("trigger", string(job.Trigger)),
		)
		return nil
	default:
		d.metrics.JobRejected(job, "queue_full")
		return ErrJobQueueFull
	}
}

// InFlight reports whether a job for integrationID is queued or running
func (d *SyncDispatcher) InFlight(integrationID uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inFlight[integrationID]
	return ok
}

func (d *SyncDispatcher) worker(ctx context.Context, workerID int) {
	defer d.wg.Done()
	d.logger.Debug("Sync worker started", zap.Int("worker_id", workerID))

	for job := range d.jobs {
		d.processJob(ctx, job, workerID)
	}
	d.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
}

func (d *SyncDispatcher) processJob(ctx context.Context, job integration.SyncJob, workerID int) {
	defer func() {
		d.mu.Lock()
		delete(d.inFlight, job.IntegrationID)
		d.metrics.QueueDepth(len(d.jobs))
		d.mu.Unlock()
	}()

	jobCtx, cancel := context.WithTimeout(ctx, d.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := d.safeRun(jobCtx, job)
	elapsed := time.Since(start)
	d.metrics.JobFinished(job, err, elapsed)

	fields := []zap.Field{
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("integration_id", job.IntegrationID.String()),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		d.logger.Error("Sync job failed", append(fields, zap.Error(err))...)
		return
	}
	d.logger.Info("Sync job completed", fields...)
}

// safeRun keeps a panicking sync from taking the worker down
func (d *SyncDispatcher) safeRun(ctx context.Context, job integration.SyncJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Sync job panicked",
				zap.String("job_id", job.ID.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = errPanicked
		}
	}()
	return d.runner.Run(ctx, job)
}
