package log

import "github.com/sirupsen/logrus"

// LogrusFormatter is the subset of logrus implemented by both '*logrus.Logger' and '*logrus.Entry'.
type LogrusFormatter interface {
	Logf(level logrus.Level, format string, args ...any)
}

// LogrusLogger adapts a logrus logger (or entry with fields attached) to the 'Logger' interface.
type LogrusLogger struct {
	logger LogrusFormatter
}

// NewLogrusLogger returns a 'Logger' which writes through the given logrus logger/entry.
func NewLogrusLogger(logger LogrusFormatter) LogrusLogger {
	return LogrusLogger{logger: logger}
}

// Log implements the 'Logger' interface.
//
// NOTE: logrus panics when logging at its panic level, panic messages are therefore logged at the error level and the
// 'WrappedLogger' is left to panic.
func (l LogrusLogger) Log(level Level, format string, args ...any) {
	l.logger.Logf(logrusLevel(level), format, args...)
}

func logrusLevel(level Level) logrus.Level {
	switch level {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	}

	return logrus.ErrorLevel
}
