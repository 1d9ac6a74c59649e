package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreRecordNotFoundError)
}

func TestNewGormLogger_Options(t *testing.T) {
	gormLog, _ := newObservedGormLogger(
		t,
		gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, gormlogger.Info)

	derived := gormLog.LogMode(gormlogger.Warn)

	// the original keeps its level, LogMode returns a copy
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)

	derivedGorm, ok := derived.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, derivedGorm.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Info)

	gormLog.Info(context.Background(), "opening connection to %s", "edibridge")
	gormLog.Warn(context.Background(), "replacing callback %s", "create")
	gormLog.Error(context.Background(), "invalid dsn")

	logs := recorded.All()
	require.Len(t, logs, 3)
	assert.Contains(t, logs[0].Message, "opening connection to edibridge")
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[2].Level)
}

func TestGormLogger_SilentSuppressesEverything(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Silent)

	gormLog.Info(context.Background(), "ignored")
	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Error)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO orders (business_key) VALUES ($1)", 0
	}, errors.New("duplicate key value violates unique constraint"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Error")
}

func TestGormLogger_Trace_RecordNotFoundIgnored(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Error, WithIgnoreRecordNotFoundError(true))

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders WHERE business_key = $1", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_RecordNotFoundLoggedWhenConfigured(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Error, WithIgnoreRecordNotFoundError(false))

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM orders WHERE business_key = $1", 0
	}, gormlogger.ErrRecordNotFound)

	require.Len(t, recorded.All(), 1)
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

	begin := time.Now().Add(-time.Second)
	gormLog.Trace(context.Background(), begin, func() (string, int64) {
		return "SELECT * FROM order_lines WHERE order_id = $1", 40
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SLOW SQL")
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestGormLogger_Trace_NormalQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Info)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM parties WHERE namespace = $1 AND code = $2", 1
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Query")
}

func TestGormLogger_Trace_CarriesIngestionScope(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Info)

	ctx := context.WithValue(context.Background(), TenantIDKey, "2a7c9f4e-1b6d-4e2a-9c3f-8d5e6f7a8b9c")
	ctx = context.WithValue(ctx, SourceRefKey, "inbox/gtn_order_20260829.xml")

	gormLog.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM orders WHERE tenant_id = $1", 1
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)

	fields := map[string]string{}
	for _, field := range logs[0].Context {
		if field.Type == zapcore.StringType {
			fields[field.Key] = field.String
		}
	}
	assert.Equal(t, "2a7c9f4e-1b6d-4e2a-9c3f-8d5e6f7a8b9c", fields["tenant_id"])
	assert.Equal(t, "inbox/gtn_order_20260829.xml", fields["source_ref"])
}

func TestGormLogger_Trace_OmitsEmptyScope(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, gormlogger.Info)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	for _, field := range logs[0].Context {
		assert.NotEqual(t, "tenant_id", field.Key)
		assert.NotEqual(t, "source_ref", field.Key)
	}
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}

func TestGormLoggerImplementsInterface(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, gormlogger.Info)
	var _ gormlogger.Interface = gormLog
}
