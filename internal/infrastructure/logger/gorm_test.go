package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name     string
		level    gormlogger.LogLevel
		begin    time.Time
		err      error
		wantMsg  string
		wantNone bool
	}{
		{"query at info", gormlogger.Info, time.Now(), nil, "SQL Query", false},
		{"error", gormlogger.Warn, time.Now(), errors.New("boom"), "SQL Error", false},
		{"record not found ignored", gormlogger.Warn, time.Now(), gormlogger.ErrRecordNotFound, "", true},
		{"slow", gormlogger.Warn, time.Now().Add(-time.Second), nil, "Slow SQL", false},
		{"silent", gormlogger.Silent, time.Now(), errors.New("boom"), "", true},
		{"fast query at warn", gormlogger.Warn, time.Now(), nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level)

			ctx := WithTenantID(context.Background(), "tenant-9")
			gl.Trace(ctx, tt.begin, sqlFn, tt.err)

			if tt.wantNone {
				assert.Zero(t, recorded.Len())
				return
			}
			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, "tenant-9", entry.ContextMap()["tenant_id"])
			assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	switched := gl.LogMode(gormlogger.Error).(*GormLogger)
	assert.Equal(t, gormlogger.Error, switched.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_TruncatesLongStatements(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, WithMaxSQLLength(20))

	insert := "INSERT INTO product_variants VALUES " + strings.Repeat("(?,?,?),", 50)
	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return insert, 50 }, nil)

	require.Equal(t, 1, recorded.Len())
	logged := recorded.All()[0].ContextMap()["sql"].(string)
	assert.True(t, strings.HasPrefix(logged, insert[:20]))
	assert.Contains(t, logged, "bytes truncated")
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
