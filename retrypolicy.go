package taskpool

import (
	"errors"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
)

const (
	defaultAttempts     = 3
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// BackoffFunc maps a 1-based attempt number to the delay before the
// retried task re-enters the queue.
type BackoffFunc func(attempt int) time.Duration

// RetryPolicy decides whether a failed attempt should be retried and
// after what delay.
//
// attempt is the number of execution starts so far (>= 1). Decide must
// return the same retry decision for the same attempt and error class,
// so callers can assert exact attempt counts.
type RetryPolicy interface {
	Decide(attempt int, err error) (retry bool, delay time.Duration)
}

// BoundedRetry retries every retryable error until MaxAttempts
// execution starts have happened. Errors wrapped with Permanent are
// never retried.
type BoundedRetry struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

func (p BoundedRetry) Decide(attempt int, err error) (bool, time.Duration) {
	if IsPermanent(err) {
		return false, 0
	}
	if attempt >= p.MaxAttempts {
		return false, 0
	}
	if p.Backoff == nil {
		return true, 0
	}
	return true, p.Backoff(attempt)
}

// DefaultRetry returns the policy used when neither the pool options
// nor the submission specify one.
func DefaultRetry() RetryPolicy {
	return BoundedRetry{
		MaxAttempts: defaultAttempts,
		Backoff:     ExponentialBackoff(defaultInitialRetry, defaultMaxRetry),
	}
}

// ConstantBackoff waits the same duration before every retry.
func ConstantBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff grows the delay from initial up to max. The
// backoff iterator is seeded per attempt so the returned func is a
// pure function of its argument.
func ExponentialBackoff(initial, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		bo := boff.New(initial, max, int64(attempt))
		d := initial
		for i := 0; i < attempt; i++ {
			d = bo.Next()
		}
		return d
	}
}

// permanentError marks an error as not retryable.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that BoundedRetry abandons the task on first
// failure regardless of remaining attempts. Use it for errors that
// cannot succeed on retry, such as validation failures.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err or any error it wraps was marked
// with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
