package executor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls whether worker errors and timeouts are retried up to
// each step's Retries budget. Validation rejections are never retried.
type RetryPolicy struct {
	Enabled         bool
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the disabled policy with the default intervals.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Enabled:         false,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// budget returns how many extra attempts a step with the given retry count
// gets under this policy.
func (p RetryPolicy) budget(retries int) int {
	if !p.Enabled || retries <= 0 {
		return 0
	}
	return retries
}

// backOff builds the exponential schedule for a step with the given retry
// budget. Elapsed time is unbounded; the step timeout bounds each attempt.
func (p RetryPolicy) backOff(retries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(retries))
}
