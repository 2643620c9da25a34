package menucache

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"

	pr "github.com/unkn0wn-root/menucache/provider"
)

func defaultRetryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, pr.ErrUnavailable):
		return false
	}
	return true
}

func (k *Keyspace) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = k.retry.InitialInterval
	b.MaxInterval = k.retry.MaxInterval
	return b
}

// call runs fn under the keyspace retry policy. Non-retryable errors stop at
// once; anything else is tried up to MaxAttempts times with exponential backoff.
// The final failure is reported as *BackendError.
func call[T any](ctx context.Context, k *Keyspace, op, storageKey string, fn func() (T, error)) (T, error) {
	attempts := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !k.retry.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		if uint(attempts) < k.retry.MaxAttempts {
			k.hooks.Retry(op, attempts, err)
			k.log.Debug("provider call failed; retrying", Fields{"op": op, "key": storageKey, "attempt": attempts, "err": err})
		}
		return v, err
	},
		backoff.WithBackOff(k.newBackOff()),
		backoff.WithMaxTries(k.retry.MaxAttempts),
	)
	if err != nil {
		var zero T
		be := &BackendError{Op: op, Key: storageKey, Attempts: attempts, Err: err}
		k.hooks.BackendFailure(op, storageKey, err)
		k.log.Warn("provider call failed", Fields{"op": op, "key": storageKey, "attempts": attempts, "err": err})
		return zero, be
	}
	return res, nil
}

// callErr is call for operations without a result.
func callErr(ctx context.Context, k *Keyspace, op, storageKey string, fn func() error) error {
	_, err := call(ctx, k, op, storageKey, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
