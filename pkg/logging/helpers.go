package logging

import (
	"context"
	"log/slog"
)

// The helpers below accept a nil logger so packages can run without one.

func emit(logger *slog.Logger, level slog.Level, msg string, args []any) {
	if logger == nil {
		return
	}
	logger.Log(context.Background(), level, msg, args...)
}

func Debug(logger *slog.Logger, msg string, args ...any) { emit(logger, slog.LevelDebug, msg, args) }

func Info(logger *slog.Logger, msg string, args ...any) { emit(logger, slog.LevelInfo, msg, args) }

func Warn(logger *slog.Logger, msg string, args ...any) { emit(logger, slog.LevelWarn, msg, args) }

// Error adds err under FieldError when non-nil.
func Error(logger *slog.Logger, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, FieldError, err)
	}
	emit(logger, slog.LevelError, msg, args)
}

// With scopes logger to a bulk run or request; nil stays nil.
func With(logger *slog.Logger, args ...any) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(args...)
}
