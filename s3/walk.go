package s3

import (
	"context"
	"errors"
)

// ErrStopWalking may be returned by a 'WalkFunc' to end a walk early, without an error.
var ErrStopWalking = errors.New("stop walking")

// WalkFunc is called once for each entry in a listing, returning an error ends the walk.
type WalkFunc func(entry Entry) error

func walk(ctx context.Context, it *ObjectIterator, fn WalkFunc) error {
	for err := it.Rewind(ctx); ; err = it.Next(ctx) {
		if err != nil {
			return err
		}

		if !it.Valid() {
			return nil
		}

		err = fn(it.Current())
		if errors.Is(err, ErrStopWalking) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}
