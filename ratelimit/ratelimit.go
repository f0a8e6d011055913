// Package ratelimit exposes readers which limit the rate at which object data is transferred.
package ratelimit

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"
)

// Reader will use its limiter as a rate limit on the number of bytes read, it's used for downloaded object data.
type Reader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// NewReader creates a new Reader which respects "limiter" in terms of the number of bytes read.
func NewReader(ctx context.Context, r io.Reader, limiter *rate.Limiter) *Reader {
	return &Reader{ctx: ctx, r: r, limiter: limiter}
}

// Read will read into p whilst respecting the rate limit.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n <= 0 {
		return n, err
	}

	if lErr := waitChunked(r.ctx, r.limiter, n); lErr != nil {
		return n, lErr
	}

	return n, err
}

// ReadSeeker will use its limiter as a rate limit on the number of bytes read, it's used for uploaded request bodies
// which must be rewound before each attempt.
type ReadSeeker struct {
	Reader
	s io.Seeker
}

// NewReadSeeker creates a ReadSeeker which respects "limiter" in terms of the number of bytes read.
func NewReadSeeker(ctx context.Context, r io.ReadSeeker, limiter *rate.Limiter) *ReadSeeker {
	return &ReadSeeker{Reader: Reader{ctx: ctx, r: r, limiter: limiter}, s: r}
}

// Seek sets the offset for the next read.
func (r *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return r.s.Seek(offset, whence)
}

// waitChunked waits for n tokens in chunks of the limiter's burst size. This is because rate.Limiter will only allow
// at most its burst number of tokens to be drained at once, so if we want to wait for more than several calls to wait
// are required.
func waitChunked(ctx context.Context, limiter *rate.Limiter, n int) error {
	maxChunkSize := limiter.Burst()

	for n > 0 {
		waitFor := min(n, maxChunkSize)
		if lErr := limiter.WaitN(ctx, waitFor); lErr != nil {
			return fmt.Errorf("could not wait for limiter: %w", lErr)
		}

		n -= waitFor
	}

	return nil
}

var (
	_ io.Reader     = (*Reader)(nil)
	_ io.ReadSeeker = (*ReadSeeker)(nil)
)
