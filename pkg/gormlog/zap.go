package gormlog

import (
	"context"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// ZapLogger implements gorm.io/gorm/logger.Interface on top of a zap
// SugaredLogger so SQL traces land in the same structured stream as job logs.
type ZapLogger struct {
	base   *zap.SugaredLogger
	config gormlogger.Config
}

func New(base *zap.SugaredLogger) *ZapLogger {
	cfg := gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	}
	return &ZapLogger{base: base, config: cfg}
}

func (z *ZapLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := z.config
	cfg.LogLevel = level
	return &ZapLogger{base: z.base, config: cfg}
}

func (z *ZapLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Info {
		z.base.Infow(msg, "args", data)
	}
}

func (z *ZapLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Warn {
		z.base.Warnw(msg, "args", data)
	}
}

func (z *ZapLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if z.config.LogLevel >= gormlogger.Error {
		z.base.Errorw(msg, "args", data)
	}
}

func (z *ZapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if z.config.LogLevel == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []interface{}{
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", utils.FileWithLineNum(),
	}
	switch {
	case err != nil:
		z.base.Errorw("gorm_trace", append(fields, "err", err, "sql", sql)...)
	case z.config.SlowThreshold > 0 && elapsed > z.config.SlowThreshold:
		z.base.Warnw("gorm_slow", append(fields, "sql", sql)...)
	case z.config.LogLevel >= gormlogger.Info:
		z.base.Infow("gorm", append(fields, "sql", sql)...)
	}
}
