package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// slogLogger routes gorm's query log through slog. SQL text is logged only
// at debug level since it can carry user queries.
type slogLogger struct {
	base          *slog.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(base *slog.Logger) gormlogger.Interface {
	return &slogLogger{
		base:          base.With(slog.String("component", "gorm")),
		slowThreshold: defaultSlowThreshold,
		level:         gormlogger.Warn,
	}
}

func (l *slogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.from(ctx).InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.from(ctx).WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.from(ctx).ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := l.from(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		_, rows := fc()
		log.ErrorContext(ctx, "gorm query error",
			slog.Duration("elapsed", elapsed),
			slog.Int64("rows", rows),
			slog.String("error", err.Error()))
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		_, rows := fc()
		log.WarnContext(ctx, "gorm slow query",
			slog.Duration("elapsed", elapsed),
			slog.Int64("rows", rows),
			slog.Duration("threshold", l.slowThreshold))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.DebugContext(ctx, "gorm query",
			slog.Duration("elapsed", elapsed),
			slog.Int64("rows", rows),
			slog.String("sql", sql))
	}
}

func (l *slogLogger) from(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, l.base)
}
