package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger sends GORM's statement log to slog. At the default Warn level only
// failed and slow statements are written.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a GORM logger writing to l.
func NewGormLogger(l *slog.Logger) logger.Interface {
	return &gormLogger{log: l, level: logger.Warn, slow: slowQueryThreshold}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	g.printf(ctx, logger.Info, slog.LevelInfo, msg, data...)
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	g.printf(ctx, logger.Warn, slog.LevelWarn, msg, data...)
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	g.printf(ctx, logger.Error, slog.LevelError, msg, data...)
}

func (g *gormLogger) printf(ctx context.Context, min logger.LogLevel, lvl slog.Level, msg string, data ...interface{}) {
	if g.level >= min {
		g.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

// Trace logs one statement. Missing rows are an expected outcome of lookups
// and are never logged as failures.
func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case g.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []any{"sql", sql, "rows", rows, "elapsed", elapsed}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	g.log.Log(ctx, lvl, msg, attrs...)
}
