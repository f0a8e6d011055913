// Package log provides an interface to setup logging when using 's3wire'.
package log

import (
	"fmt"
	"log/slog"
)

// Logger interface which allows applications to provide custom logger implementations.
type Logger interface {
	Log(level Level, format string, args ...any)
}

// UserDataValue is a value which should be treated as user data, and therefore tagged as such in the logs. Bucket
// names, object keys and URLs are tagged this way so log processing tooling may redact them.
type UserDataValue string

// String implements the 'fmt.Stringer' interface.
func (u UserDataValue) String() string {
	return fmt.Sprintf("<ud>%s</ud>", string(u))
}

// LogValue implements the 'slog.LogValuer' interface.
func (u UserDataValue) LogValue() slog.Value {
	return slog.StringValue(u.String())
}

// UserData marks the given value as user data.
func UserData(value any) UserDataValue {
	return UserDataValue(fmt.Sprint(value))
}
