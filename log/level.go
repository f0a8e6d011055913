package log

// Level is used to indicate the verbosity of a log statement.
type Level uint8

const (
	// LevelTrace is the most verbose log level, this is where the request/response lines of the dispatcher are logged
	// by default.
	LevelTrace Level = iota

	// LevelDebug includes fine-grained informational events that are the most useful to debug the library.
	LevelDebug

	// LevelInfo includes informational messages that highlight the progress of events in the library at a
	// coarse-grained level.
	LevelInfo

	// LevelWarning includes expected but potentially harmful/interesting events, for example a retried request or a
	// filesystem operation which reported failure.
	LevelWarning

	// LevelError includes error events which may still allow the library to continue running.
	LevelError

	// LevelPanic includes errors events which should lead to a panic. This level will only be used in the most severe
	// of cases.
	LevelPanic
)

// String returns the four character tag used when rendering the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRAC"
	case LevelDebug:
		return "DEBU"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERRO"
	case LevelPanic:
		return "PNIC"
	}

	return "UNKN"
}
