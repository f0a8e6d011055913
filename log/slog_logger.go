package log

import (
	"context"
	"fmt"
	"log/slog"
)

// Levels without a direct 'slog' equivalent.
const (
	SlogLevelTrace = slog.LevelDebug - 4
	SlogLevelPanic = slog.LevelError + 4
)

// SlogLogger adapts a '*slog.Logger' to the 'Logger' interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a 'Logger' which writes through the given slog logger.
func NewSlogLogger(logger *slog.Logger) SlogLogger {
	return SlogLogger{logger: logger}
}

// Log implements the 'Logger' interface.
func (s SlogLogger) Log(level Level, format string, args ...any) {
	s.logger.Log(context.Background(), slogLevel(level), fmt.Sprintf(format, args...))
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelTrace:
		return SlogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}

	return SlogLevelPanic
}
