package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/persistence/models"
	"github.com/stockpilot/backend/tests/testutil"
)

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("telemetry:before_query"))
}

func TestRegisterDBTracing_LogsSlowQueries(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	db := testutil.NewSQLiteDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBName:          "sqlite",
	}, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("telemetry:before_query"))

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	var count int64
	require.NoError(t, db.WithContext(ctx).Model(&models.SupplierModel{}).Count(&count).Error)

	require.NotZero(t, logs.FilterMessage("Slow query").Len())
	assert.NotEmpty(t, recorder.Ended(), "otelgorm should record a span per statement")
}
