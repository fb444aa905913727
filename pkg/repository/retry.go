package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/payledger/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a unit of work is re-run after a storage conflict.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Atomic runs fn in a unit of work, re-running the whole unit when the store
// reports domain.ErrStorageConflict. Any other error is returned immediately.
func Atomic(
	ctx context.Context,
	uow UnitOfWork,
	policy RetryPolicy,
	fn func(uow UnitOfWork) error,
) error {
	op := func() error {
		err := uow.Do(ctx, fn)
		if err == nil || errors.Is(err, domain.ErrStorageConflict) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, policy.backOff(ctx))
}
