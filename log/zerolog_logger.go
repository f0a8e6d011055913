package log

import "github.com/rs/zerolog"

// ZerologLogger adapts a 'zerolog.Logger' to the 'Logger' interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a 'Logger' which writes through the given zerolog logger.
func NewZerologLogger(logger zerolog.Logger) ZerologLogger {
	return ZerologLogger{logger: logger}
}

// Log implements the 'Logger' interface.
//
// NOTE: Panic level messages are written using 'WithLevel' which does not panic; the 'WrappedLogger' is responsible
// for panicking.
func (z ZerologLogger) Log(level Level, format string, args ...any) {
	z.logger.WithLevel(zerologLevel(level)).Msgf(format, args...)
}

// zerologLevel converts the given level into its zerolog equivalent.
func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelPanic:
		return zerolog.PanicLevel
	}

	return zerolog.NoLevel
}
