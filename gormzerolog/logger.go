// Package gormzerolog adapts a zerolog.Logger to gorm's logger.Interface.
//
// Statements are logged at trace level, slow statements at warn level.
// Failed statements are logged at debug level only: errors are returned to
// the caller and handling them is the caller's business.
package gormzerolog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSlowThreshold is used when Config.SlowThreshold is zero.
const DefaultSlowThreshold = 200 * time.Millisecond

// Config contains adapter options.
type Config struct {
	// SlowThreshold marks statements slower than this as slow. Negative disables it.
	SlowThreshold time.Duration
	// LogLevel is gorm's own verbosity gate, applied before zerolog's level.
	LogLevel logger.LogLevel
	// ParameterizedQueries logs SQL with placeholders instead of inlined values.
	ParameterizedQueries bool
}

// Logger implements logger.Interface.
type Logger struct {
	log zerolog.Logger
	cfg Config
}

// New returns a gorm logger writing to log.
func New(log zerolog.Logger, cfg Config) *Logger {
	if cfg.SlowThreshold == 0 {
		cfg.SlowThreshold = DefaultSlowThreshold
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Info
	}

	return &Logger{
		log: log.With().Str("component", "gorm").Logger(),
		cfg: cfg,
	}
}

// LogMode - implements logger.Interface.
func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.cfg.LogLevel = level

	return &cp
}

// Info - implements logger.Interface.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l.cfg.LogLevel >= logger.Info {
		l.log.Info().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
	}
}

// Warn - implements logger.Interface.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l.cfg.LogLevel >= logger.Warn {
		l.log.Warn().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
	}
}

// Error - implements logger.Interface.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l.cfg.LogLevel >= logger.Error {
		l.log.Error().Ctx(ctx).Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace - implements logger.Interface.
func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.cfg.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		event = l.log.Debug().Err(err)
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.LogLevel >= logger.Warn:
		event = l.log.Warn().Bool("slow", true).Dur("threshold", l.cfg.SlowThreshold)
	case l.cfg.LogLevel >= logger.Info:
		event = l.log.Trace()
	default:
		return
	}

	sql, rows := fc()
	event.Ctx(ctx).
		Str("sql", sql).
		Int64("rows", rows).
		Dur("elapsed", elapsed).
		Msg("gorm statement")
}

// ParamsFilter - implements gorm's ParamsFilter. Values are dropped from the
// logged SQL when ParameterizedQueries is set.
func (l *Logger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.ParameterizedQueries {
		return sql, nil
	}

	return sql, params
}

var (
	_ logger.Interface  = (*Logger)(nil)
	_ gorm.ParamsFilter = (*Logger)(nil)
)
