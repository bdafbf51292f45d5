package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/integration"
)

type fakeAutoSyncSource struct {
	integrations []integration.Integration
	err          error
}

func (f *fakeAutoSyncSource) FindAutoSync(context.Context) ([]integration.Integration, error) {
	return f.integrations, f.err
}

type fakeSubmitter struct {
	mu    sync.Mutex
	jobs  []integration.SyncJob
	errFn func(n int) error
}

func (f *fakeSubmitter) Submit(job integration.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFn != nil {
		if err := f.errFn(len(f.jobs)); err != nil {
			return err
		}
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeSubmitter) submitted() []integration.SyncJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]integration.SyncJob(nil), f.jobs...)
}

func autoSyncIntegration(t *testing.T, lastSync *time.Time, status integration.Status) integration.Integration {
	t.Helper()
	integ, err := integration.NewIntegration(uuid.New(), integration.PlatformShopify, "Shop", "acme.myshopify.com")
	require.NoError(t, err)
	require.NoError(t, integ.SetSchedule(true, 60))
	integ.Status = status
	integ.LastSyncAt = lastSync
	return *integ
}

func TestSyncCronTrigger_Tick(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	stale := now.Add(-2 * time.Hour)

	due := autoSyncIntegration(t, &stale, integration.StatusSynced)
	never := autoSyncIntegration(t, nil, integration.StatusConnected)
	fresh := autoSyncIntegration(t, &recent, integration.StatusSynced)
	syncing := autoSyncIntegration(t, &stale, integration.StatusSyncing)
	pending := autoSyncIntegration(t, nil, integration.StatusPending)

	source := &fakeAutoSyncSource{integrations: []integration.Integration{due, never, fresh, syncing, pending}}
	submitter := &fakeSubmitter{}

	trigger, err := NewSyncCronTrigger(source, submitter, time.Minute, zap.NewNop())
	require.NoError(t, err)
	trigger.now = func() time.Time { return now }

	count := trigger.Tick(context.Background())
	assert.Equal(t, 2, count)

	jobs := submitter.submitted()
	require.Len(t, jobs, 2)
	assert.Equal(t, due.ID, jobs[0].IntegrationID)
	assert.Equal(t, due.TenantID, jobs[0].TenantID)
	assert.Equal(t, never.ID, jobs[1].IntegrationID)
	for _, job := range jobs {
		assert.Equal(t, integration.SyncKindFull, job.Kind)
		assert.Equal(t, integration.SyncTriggerSchedule, job.Trigger)
	}
}

func TestSyncCronTrigger_FailingIntegrationBacksOff(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := start.Add(-2 * time.Hour)
	integ := autoSyncIntegration(t, &stale, integration.StatusSynced)
	source := &fakeAutoSyncSource{integrations: []integration.Integration{integ}}
	submitter := &fakeSubmitter{}

	trigger, err := NewSyncCronTrigger(source, submitter, time.Minute, zap.NewNop())
	require.NoError(t, err)

	// every submitted job fails against the platform; ticks cover two intervals
	var now time.Time
	trigger.now = func() time.Time { return now }
	for tick := range 120 {
		now = start.Add(time.Duration(tick) * time.Minute)
		if trigger.Tick(context.Background()) == 0 {
			continue
		}
		stored := &source.integrations[0]
		require.NoError(t, stored.BeginSync())
		stored.FailSync(now, errors.New("platform unavailable"))
	}

	jobs := submitter.submitted()
	require.Len(t, jobs, 2)
	assert.Equal(t, 2, source.integrations[0].FailureCount)
	// second failure doubles the wait
	assert.Equal(t, start.Add(3*time.Hour), *source.integrations[0].NextSyncAt())
}

func TestSyncCronTrigger_TickSkipsInProgressAndStopsWhenQueueFull(t *testing.T) {
	integrations := []integration.Integration{
		autoSyncIntegration(t, nil, integration.StatusConnected),
		autoSyncIntegration(t, nil, integration.StatusConnected),
		autoSyncIntegration(t, nil, integration.StatusConnected),
		autoSyncIntegration(t, nil, integration.StatusConnected),
	}
	calls := 0
	submitter := &fakeSubmitter{errFn: func(int) error {
		calls++
		switch calls {
		case 1:
			return integration.ErrSyncAlreadyInProgress
		case 3:
			return ErrJobQueueFull
		}
		return nil
	}}

	trigger, err := NewSyncCronTrigger(&fakeAutoSyncSource{integrations: integrations}, submitter, time.Minute, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, trigger.Tick(context.Background()))
	assert.Equal(t, 3, calls, "the fourth integration waits for the next tick")
}

func TestSyncCronTrigger_TickSourceError(t *testing.T) {
	submitter := &fakeSubmitter{}
	trigger, err := NewSyncCronTrigger(&fakeAutoSyncSource{err: errors.New("db down")}, submitter, time.Minute, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 0, trigger.Tick(context.Background()))
	assert.Empty(t, submitter.submitted())
}

func TestSyncCronTrigger_StartStop(t *testing.T) {
	source := &fakeAutoSyncSource{integrations: []integration.Integration{
		autoSyncIntegration(t, nil, integration.StatusConnected),
	}}
	submitter := &fakeSubmitter{}

	_, err := NewSyncCronTrigger(source, submitter, 0, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	trigger, err := NewSyncCronTrigger(source, submitter, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))

	assert.Eventually(t, func() bool { return len(submitter.submitted()) > 0 }, time.Second, 5*time.Millisecond)

	trigger.Stop()
	trigger.Stop()
}

func TestSyncCronTrigger_SubmitsToDispatcher(t *testing.T) {
	ran := make(chan integration.SyncJob, 1)
	d, err := NewSyncDispatcher(testDispatcherConfig(), runnerFunc(func(_ context.Context, job integration.SyncJob) error {
		ran <- job
		return nil
	}), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	defer func() { _ = d.Stop(context.Background()) }()

	integ := autoSyncIntegration(t, nil, integration.StatusSynced)
	trigger, err := NewSyncCronTrigger(&fakeAutoSyncSource{integrations: []integration.Integration{integ}}, d, time.Hour, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, trigger.Tick(context.Background()))
	select {
	case job := <-ran:
		assert.Equal(t, integ.ID, job.IntegrationID)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
