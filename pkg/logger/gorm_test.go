package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observed(level string) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, 100*time.Millisecond), logs
}

func statement() (string, int64) {
	return "SELECT * FROM stock", 3
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	l, logs := observed("warn")
	l.Trace(ctx, time.Now(), statement, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow sql").Len())

	l.Trace(ctx, time.Now(), statement, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), statement, errors.New("connection reset"))
	assert.Equal(t, 1, logs.FilterMessage("sql error").Len())

	verbose, all := observed("info")
	verbose.Trace(ctx, time.Now(), statement, nil)
	assert.Equal(t, 1, all.FilterMessage("sql").Len())

	silent, none := observed("silent")
	silent.Trace(ctx, time.Now(), statement, errors.New("boom"))
	assert.Equal(t, 0, none.Len())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel(""))
}
