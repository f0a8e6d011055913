package retry

import "time"

// LogFunc is a function which is run before each retry attempt after failing to run the given 'RetryableFunc'.
type LogFunc[T any] func(ctx *Context, payload T, err error)

// ShouldRetryFunc is a function which may be supplied to the retry options which allows more control over which
// payloads/errors are retried.
//
// NOTE: If not supplied, retries will take place if the given 'RetryableFunc' returns an error.
type ShouldRetryFunc[T any] func(ctx *Context, payload T, err error) bool

// CleanupFunc is a function which is run with the payload for all, but the last attempt.
type CleanupFunc[T any] func(payload T)

// RetryerOptions encapsulates the options available when creating a retryer.
type RetryerOptions[T any] struct {
	// MaxRetries is the number of times the function is retried after the first attempt, a value of zero means the
	// function is executed exactly once.
	MaxRetries int

	// Delay is a fixed pause between attempts, the zero value retries immediately.
	Delay time.Duration

	// ShouldRetry is a custom retry function, when not supplied, this will be defaulted to 'err != nil'.
	ShouldRetry ShouldRetryFunc[T]

	// Log is a function which is run before each retry, when not supplied logging will be skipped.
	Log LogFunc[T]

	// Cleanup is a cleanup function run for all but the last payloads prior to performing a retry.
	Cleanup CleanupFunc[T]
}

// defaults fills any missing attributes to a sane default.
func (r *RetryerOptions[T]) defaults() {
	// NOTE: Limit the number of retries, there's no back-off so a large value would hammer the remote service
	r.MaxRetries = min(max(r.MaxRetries, 0), 50)
}
