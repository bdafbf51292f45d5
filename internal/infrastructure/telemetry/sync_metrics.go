package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockpilot/backend/internal/domain/integration"
)

const namespace = "stockpilot"

// SyncMetrics exports sync, dispatcher and webhook activity to Prometheus.
// It satisfies the metrics ports of the sync service, the webhook service and
// the dispatcher.
type SyncMetrics struct {
	syncAttempts  *prometheus.CounterVec
	syncRuns      *prometheus.CounterVec
	syncDuration  *prometheus.HistogramVec
	syncRecords   *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	webhookEvents *prometheus.CounterVec
}

// NewSyncMetrics creates the collectors and registers them with reg
func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	m := &SyncMetrics{
		syncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "attempts_total",
			Help: "Sync attempts, retries included.",
		}, []string{"platform", "attempt"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "runs_total",
			Help: "Finished sync runs by outcome.",
		}, []string{"platform", "kind", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sync", Name: "run_duration_seconds",
			Help:    "Wall time of a sync run, backoff included.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		}, []string{"platform", "kind"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "records_total",
			Help: "Records reconciled by sync runs.",
		}, []string{"platform", "entity", "result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatcher", Name: "jobs_total",
			Help: "Jobs seen by the sync dispatcher by state.",
		}, []string{"trigger", "state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "dispatcher", Name: "job_duration_seconds",
			Help:    "Time from worker pickup to job completion.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "dispatcher", Name: "queue_depth",
			Help: "Jobs waiting for a worker.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "webhook", Name: "events_total",
			Help: "Webhook deliveries by outcome.",
		}, []string{"platform", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.syncAttempts, m.syncRuns, m.syncDuration, m.syncRecords,
		m.jobs, m.jobDuration, m.queueDepth, m.webhookEvents,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SyncAttempt counts one attempt of a run
func (m *SyncMetrics) SyncAttempt(platform integration.PlatformCode, attempt int) {
	m.syncAttempts.WithLabelValues(string(platform), strconv.Itoa(attempt)).Inc()
}

// SyncFinished records the outcome and duration of a run
func (m *SyncMetrics) SyncFinished(platform integration.PlatformCode, kind integration.SyncKind, err error, elapsed time.Duration) {
	m.syncRuns.WithLabelValues(string(platform), string(kind), outcome(err)).Inc()
	m.syncDuration.WithLabelValues(string(platform), string(kind)).Observe(elapsed.Seconds())
}

// RecordsSynced counts reconciled records of one page
func (m *SyncMetrics) RecordsSynced(platform integration.PlatformCode, entity string, created, updated, failed int) {
	for result, n := range map[string]int{"created": created, "updated": updated, "failed": failed} {
		if n > 0 {
			m.syncRecords.WithLabelValues(string(platform), entity, result).Add(float64(n))
		}
	}
}

// JobSubmitted counts an accepted job
func (m *SyncMetrics) JobSubmitted(job integration.SyncJob) {
	m.jobs.WithLabelValues(string(job.Trigger), "submitted").Inc()
}

// JobRejected counts a job turned away by the dispatcher
func (m *SyncMetrics) JobRejected(job integration.SyncJob, reason string) {
	m.jobs.WithLabelValues(string(job.Trigger), "rejected_"+reason).Inc()
}

// JobFinished counts a job a worker completed
func (m *SyncMetrics) JobFinished(job integration.SyncJob, err error, elapsed time.Duration) {
	m.jobs.WithLabelValues(string(job.Trigger), outcome(err)).Inc()
	m.jobDuration.WithLabelValues(string(job.Kind)).Observe(elapsed.Seconds())
}

// QueueDepth sets the number of waiting jobs
func (m *SyncMetrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// WebhookHandled counts a webhook delivery
func (m *SyncMetrics) WebhookHandled(platform integration.PlatformCode, result string) {
	m.webhookEvents.WithLabelValues(string(platform), result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, integration.ErrPlatformAuthFailed):
		return "auth_failed"
	case errors.Is(err, integration.ErrPlatformRateLimited):
		return "rate_limited"
	default:
		return "failed"
	}
}

// NewRegistry returns a registry carrying the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
