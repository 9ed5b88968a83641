package common

import (
	"context"
	"log"
	"time"

	"github.com/avast/retry-go"
)

// RetryPolicy is a blind retry: fixed attempt count, fixed delay between
// attempts, every error is retried.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: RetryAttempts,
	Delay:    RetryDelay,
}

// Retry calls op until it succeeds or the policy runs out of attempts.
// The error of the last attempt is returned as is.
func Retry[T any](ctx context.Context, p RetryPolicy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	var res T
	err := retry.Do(
		func() error {
			v, err := op(ctx)
			if err != nil {
				return err
			}
			res = v
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < attempts {
				log.Printf("[retry] %s: attempt %d/%d failed, next in %s: %v", name, n+1, attempts, p.Delay, err)
			} else {
				log.Printf("[retry] %s: attempt %d/%d failed, giving up: %v", name, n+1, attempts, err)
			}
		}),
	)
	if err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}
