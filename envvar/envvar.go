// Package envvar exposes helpers to read tunables from the environment.
package envvar

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetString returns the value of the environment variable varName, an empty (or whitespace only) value is treated as
// unset.
func GetString(varName string) (string, bool) {
	val, ok := os.LookupEnv(varName)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}

	return strings.TrimSpace(val), true
}

// GetInt returns the int value of the environment variable varName, if the env var is not an int or empty it will
// return 0, false.
func GetInt(varName string) (int, bool) {
	env, ok := GetString(varName)
	if !ok {
		return 0, false
	}

	val, err := strconv.Atoi(env)
	if err != nil {
		return 0, false
	}

	return val, true
}

// GetBool returns the boolean value of the environment variable varName, if the env var is empty or not a boolean it
// will return false, false.
func GetBool(varName string) (bool, bool) {
	env, ok := GetString(varName)
	if !ok {
		return false, false
	}

	val, err := strconv.ParseBool(env)
	if err != nil {
		return false, false
	}

	return val, true
}

// GetDuration returns the time.Duration value of the environment variable varName, if the env var is empty or not a
// valid duration string it will return 0, false.
func GetDuration(varName string) (time.Duration, bool) {
	env, ok := GetString(varName)
	if !ok {
		return 0, false
	}

	val, err := time.ParseDuration(env)
	if err != nil {
		return 0, false
	}

	return val, true
}
