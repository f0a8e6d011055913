package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// StdoutLogger prints all logs to standard output (or the given writer), prefixed by a timestamp and the level.
type StdoutLogger struct {
	// Writer is where log lines are written, defaults to 'os.Stdout'.
	Writer io.Writer

	// MinLevel is the least verbose level which will be written.
	MinLevel Level

	lock sync.Mutex
}

// Log method for the StdoutLogger which adds prefix dependant on the level and prints the formatted message.
func (s *StdoutLogger) Log(level Level, format string, args ...any) {
	if level < s.MinLevel {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	writer := s.Writer
	if writer == nil {
		writer = os.Stdout
	}

	fmt.Fprintf(writer, "%s %s: %s\n", time.Now().UTC().Format(time.RFC3339Nano), level, fmt.Sprintf(format, args...))
}
