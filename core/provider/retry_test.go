package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ErrRateLimited
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		return &Error{Provider: "p", Op: "get", Err: ErrUnavailable}
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
		calls++
		return ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetry_SingleAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{}, func(ctx context.Context) error {
		calls++
		return ErrRateLimited
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryPolicy{MaxAttempts: 5, InitialInterval: time.Second}, func(ctx context.Context) error {
		return ErrUnavailable
	})
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrUnavailable))
}
