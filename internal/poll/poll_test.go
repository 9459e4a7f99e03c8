package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilImmediateSuccess(t *testing.T) {
	calls := 0
	start := time.Now()

	err := Until(context.Background(), time.Hour, time.Hour, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	// An already-true condition must not wait for the first tick
	assert.Less(t, time.Since(start), time.Second)
}

func TestUntilEventualSuccess(t *testing.T) {
	calls := 0

	err := Until(context.Background(), 5*time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestUntilTimeout(t *testing.T) {
	err := Until(context.Background(), 5*time.Millisecond, 30*time.Millisecond, func(ctx context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUntilCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Until(ctx, 10*time.Millisecond, time.Hour, func(ctx context.Context) (bool, error) {
			return false, nil
		})
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled wait did not return within a poll tick")
	}
}

func TestUntilConditionError(t *testing.T) {
	boom := errors.New("boom")

	err := Until(context.Background(), time.Millisecond, time.Second, func(ctx context.Context) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
}
