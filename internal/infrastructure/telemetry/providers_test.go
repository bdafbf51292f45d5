package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stockpilot/backend/internal/domain/integration"
)

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.Core(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(ctx))

	p, err := NewProfiler(ProfilerConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "stockpilot"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, trace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, trace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, trace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("component", "sync"))

	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "sync", entry.ContextMap()["component"])
}

func TestStartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	tracer := provider.Tracer(InstrumentationName)

	ctx, parent := tracer.Start(context.Background(), "parent")
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	EndSpan(parent, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)

	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))

	_, span := StartSpan(context.Background(), "noop", attribute.String("k", "v"))
	EndSpan(span, nil)
}

type runnerFunc func(ctx context.Context, job integration.SyncJob) error

func (f runnerFunc) Run(ctx context.Context, job integration.SyncJob) error { return f(ctx, job) }

func TestProfiledSyncRunner(t *testing.T) {
	job, err := integration.NewSyncJob(uuid.New(), uuid.New(), integration.SyncKindProducts, integration.SyncTriggerSchedule)
	require.NoError(t, err)

	want := errors.New("sync failed")
	var ran bool
	r := NewProfiledSyncRunner(runnerFunc(func(_ context.Context, got integration.SyncJob) error {
		ran = true
		assert.Equal(t, job.ID, got.ID)
		return want
	}), func(context.Context, integration.SyncJob) string { return "SHOPIFY" })

	assert.ErrorIs(t, r.Run(context.Background(), job), want)
	assert.True(t, ran)

	assert.NoError(t, NewProfiledSyncRunner(runnerFunc(func(context.Context, integration.SyncJob) error {
		return nil
	}), nil).Run(context.Background(), job))
}
