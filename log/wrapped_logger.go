package log

import "fmt"

// WrappedLogger adds leveled helpers on top of a 'Logger' and tags every message with the component which logged it,
// for example "(S3FS) Failed to upload ...".
type WrappedLogger struct {
	Logger

	component string
}

// NewWrappedLogger returns a WrappedLogger for the given logger, a <nil> logger discards everything. Wrapping an
// already wrapped logger returns it unchanged, keeping its component.
func NewWrappedLogger(logger Logger) WrappedLogger {
	if logger == nil {
		return WrappedLogger{Logger: Discard}
	}

	if wrapped, ok := logger.(WrappedLogger); ok {
		return wrapped
	}

	return WrappedLogger{Logger: logger}
}

// WithComponent returns a copy of the logger which tags messages with the given component name.
func (w WrappedLogger) WithComponent(name string) WrappedLogger {
	w.component = name
	return w
}

// Component returns the name messages are tagged with, if any.
func (w WrappedLogger) Component() string {
	return w.component
}

// Logf logs the provided information at the given level.
func (w WrappedLogger) Logf(level Level, format string, args ...any) {
	if w.component != "" {
		format = "(" + w.component + ") " + format
	}

	w.Logger.Log(level, format, args...)
}

func (w WrappedLogger) Tracef(format string, args ...any) {
	w.Logf(LevelTrace, format, args...)
}

func (w WrappedLogger) Debugf(format string, args ...any) {
	w.Logf(LevelDebug, format, args...)
}

func (w WrappedLogger) Infof(format string, args ...any) {
	w.Logf(LevelInfo, format, args...)
}

func (w WrappedLogger) Warnf(format string, args ...any) {
	w.Logf(LevelWarning, format, args...)
}

func (w WrappedLogger) Errorf(format string, args ...any) {
	w.Logf(LevelError, format, args...)
}

// Panicf logs the provided information at the panic level, then panics with the (untagged) message.
func (w WrappedLogger) Panicf(format string, args ...any) {
	w.Logf(LevelPanic, format, args...)
	panic(fmt.Sprintf(format, args...))
}
