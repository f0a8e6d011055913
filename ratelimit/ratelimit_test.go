package ratelimit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	bufSize = 32
	// We want 32 tokens every 50ms
	bufInterval = 50 * time.Millisecond
	interval    = bufInterval / bufSize
	leeway      = bufInterval / 10
)

type zeroes struct{}

func (z *zeroes) Read(p []byte) (int, error) {
	return len(p), nil
}

func (z *zeroes) Seek(_ int64, _ int) (int64, error) {
	return 0, nil
}

func testRead(t *testing.T, read func(p []byte) (int, error), cancel context.CancelFunc) {
	buf := make([]byte, bufSize)

	t.Run("InitialCallIsImmediate", func(t *testing.T) {
		n, err := read(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
	})

	for i := 1; i <= 3; i++ {
		t.Run(fmt.Sprintf("SubsequentCallsAreDelayed%d", i), func(t *testing.T) {
			start := time.Now()

			n, err := read(buf)
			require.NoError(t, err)
			require.Equal(t, len(buf), n)
			require.Greater(t, time.Now(), start.Add(bufInterval-leeway))
		})
	}

	t.Run("CanDoMoreThanBurst", func(t *testing.T) {
		var (
			count  = 3
			newBuf = make([]byte, bufSize*count)
			start  = time.Now()
			n, err = read(newBuf)
		)

		require.NoError(t, err)
		require.Equal(t, len(buf)*count, n)
		require.Greater(t, time.Now(), start.Add(bufInterval*time.Duration(count)-leeway))
	})

	t.Run("RespectsContextCancel", func(t *testing.T) {
		go func() {
			time.Sleep(interval / 5)
			cancel()
		}()

		_, err := read(buf)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := NewReader(ctx, &zeroes{}, rate.NewLimiter(rate.Every(interval), bufSize))

	testRead(t, reader.Read, cancel)
}

func TestReadSeeker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := NewReadSeeker(ctx, &zeroes{}, rate.NewLimiter(rate.Every(interval), bufSize))

	testRead(t, reader.Read, cancel)
}

func TestReadSeekerRewind(t *testing.T) {
	reader := NewReadSeeker(context.Background(), bytes.NewReader([]byte("data")), rate.NewLimiter(rate.Inf, 1))

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)

	_, err = reader.Seek(0, io.SeekStart)
	require.NoError(t, err)

	data, err = io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)
}
