// Package poll provides a bounded-wait primitive for awaiting convergence of
// eventually-consistent external state.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by Until when the deadline elapses before the
// condition holds. Callers decide whether that is fatal.
var ErrTimeout = errors.New("timed out waiting for condition")

// Condition reports whether the awaited state has been reached. Errors from
// the underlying check are returned as-is and stop the wait.
type Condition func(ctx context.Context) (bool, error)

// Until re-evaluates cond at a fixed interval until it holds, the timeout
// elapses, or ctx is cancelled. The first evaluation happens immediately, so
// a condition that already holds never waits a tick.
func Until(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	deadline := time.Now().Add(timeout)

	ok, err := cond(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return ErrTimeout
			}

			ok, err := cond(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}
}
