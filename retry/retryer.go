// Package retry exposes a 'Retryer' allowing conditionally retrying functions a bounded number of times.
package retry

import (
	"context"
	"errors"
	"time"
)

// Context wraps the 'context.Context' interface whilst allowing access to useful attributes such as the number of
// attempts made so far.
type Context struct {
	context.Context
	attempt int
}

// NewContext wraps the given context with a retry context, starting at the first attempt.
func NewContext(ctx context.Context) *Context {
	return &Context{Context: ctx, attempt: 1}
}

// Attempt returns the current attempt number, starting from one.
func (c *Context) Attempt() int {
	return c.attempt
}

// RetryableFunc represents a function which is retryable.
type RetryableFunc[T any] func(ctx *Context) (T, error)

// Retryer is a function retryer, which supports executing a given function a number of times until successful.
type Retryer[T any] struct {
	options RetryerOptions[T]
}

// NewRetryer returns a new retryer with the given options.
func NewRetryer[T any](options RetryerOptions[T]) Retryer[T] {
	options.defaults()

	return Retryer[T]{options: options}
}

// MaxAttempts returns the total number of times the function may be executed.
func (r Retryer[T]) MaxAttempts() int {
	return r.options.MaxRetries + 1
}

// Do executes the given function until it's successful.
func (r Retryer[T]) Do(fn RetryableFunc[T]) (T, error) {
	return r.DoWithContext(context.Background(), fn)
}

// DoWithContext executes the given function until it's successful, the provided context may be used for cancellation.
//
// NOTE: When retries are exhausted, the payload from the final attempt is returned alongside the error, allowing the
// caller to inspect it (e.g. to classify a final HTTP response).
func (r Retryer[T]) DoWithContext(ctx context.Context, fn RetryableFunc[T]) (T, error) {
	wrapped := NewContext(ctx)

	for ; ; wrapped.attempt++ {
		if err := wrapped.Err(); err != nil {
			return *new(T), &RetriesAbortedError{attempts: wrapped.attempt - 1, err: err}
		}

		payload, err := fn(wrapped)

		retry, err := r.retry(wrapped, payload, err)
		if !retry {
			return payload, err
		}

		if wrapped.attempt >= r.MaxAttempts() {
			return payload, &RetriesExhaustedError{attempts: wrapped.attempt, err: err}
		}

		if r.options.Log != nil {
			r.options.Log(wrapped, payload, err)
		}

		// NOTE: The final payload is never cleaned up, see above
		if r.options.Cleanup != nil {
			r.options.Cleanup(payload)
		}

		if err := r.sleep(wrapped); err != nil {
			return *new(T), err
		}
	}
}

// retry returns a boolean indicating whether the function should be executed again.
func (r Retryer[T]) retry(ctx *Context, payload T, err error) (bool, error) {
	var abort *AbortRetriesError

	if errors.As(err, &abort) {
		return false, &RetriesAbortedError{attempts: ctx.attempt, err: abort.Unwrap()}
	}

	if r.options.ShouldRetry != nil {
		return r.options.ShouldRetry(ctx, payload, err), err
	}

	return err != nil, err
}

// sleep until the next retry attempt, or the given context is cancelled. Retries are immediate unless a delay has been
// configured.
func (r Retryer[T]) sleep(ctx *Context) error {
	if r.options.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(r.options.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &RetriesAbortedError{attempts: ctx.attempt, err: ctx.Err()}
	}
}
