// Package logger предоставляет единый интерфейс логирования приложения поверх log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger - интерфейс логгера, который получают все слои приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

// SlogLogger реализует Logger через структурированный slog-обработчик.
type SlogLogger struct {
	log   *slog.Logger
	level *slog.LevelVar
}

// NewSlogLogger создаёт JSON-логгер в stdout с уровнем info.
func NewSlogLogger() *SlogLogger {
	return NewSlogLoggerWithWriter(os.Stdout)
}

func NewSlogLoggerWithWriter(w io.Writer) *SlogLogger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return &SlogLogger{
		log:   slog.New(handler),
		level: level,
	}
}

// NewNop возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNop() *SlogLogger {
	return NewSlogLoggerWithWriter(io.Discard)
}

// SetLevel меняет уровень логирования на лету: debug, info, warn, error.
func (l *SlogLogger) SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l.level.Set(slog.LevelDebug)
	case "", "info":
		l.level.Set(slog.LevelInfo)
	case "warn", "warning":
		l.level.Set(slog.LevelWarn)
	case "error":
		l.level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	return nil
}

// Slog отдаёт исходный *slog.Logger для middleware, которым нужны атрибуты.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.log
}

func (l *SlogLogger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, nil, format, args...)
}

func (l *SlogLogger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, nil, format, args...)
}

func (l *SlogLogger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, nil, format, args...)
}

func (l *SlogLogger) Errorf(err error, format string, args ...any) {
	l.logf(slog.LevelError, err, format, args...)
}

func (l *SlogLogger) logf(level slog.Level, err error, format string, args ...any) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if err != nil {
		l.log.LogAttrs(ctx, level, msg, slog.String("error", err.Error()))
		return
	}
	l.log.LogAttrs(ctx, level, msg)
}
