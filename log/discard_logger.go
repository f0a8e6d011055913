package log

// Discard is a 'Logger' which drops every message, it's used when no logger is provided.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Log(_ Level, _ string, _ ...any) {}
