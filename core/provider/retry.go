package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retries of one adapter call.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Values below 1 mean a single attempt.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retry runs op until it succeeds, fails with a non-transient error, the attempts
// are exhausted or ctx ends. The last error is returned unwrapped.
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	exp := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		exp.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		exp.MaxInterval = policy.MaxInterval
	}
	// Attempts bound the retry, not wall-clock time
	exp.MaxElapsedTime = 0

	retries := policy.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil || IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
