package taskpool

import (
	"context"
	"time"
)

const (
	// DefaultMaxConcurrency bounds in-flight tasks when the caller
	// builds Options through DefaultOptions.
	DefaultMaxConcurrency = 10
)

// Options configure a Pool.
//
// MaxConcurrency and MaxAttempts must both be at least 1; New returns
// a ConfigError otherwise. The remaining fields fall back to defaults.
type Options struct {
	// MaxConcurrency caps the number of logically in-flight tasks,
	// backoff waits included. Fixed for the life of the pool.
	MaxConcurrency int

	// MaxAttempts bounds execution starts per task for the pool's
	// default retry policy.
	MaxAttempts int

	// Backoff computes the delay before a retried task re-enters the
	// queue. Defaults to ExponentialBackoff with the package defaults.
	Backoff BackoffFunc

	// Metrics receives admission and settlement hooks.
	// Defaults to NoopMetrics.
	Metrics MetricsPolicy

	// OnTaskError, if set, is invoked after every failed attempt.
	// It observes failures only; it cannot influence retry decisions.
	OnTaskError func(id string, attempt int, err error)
}

// DefaultOptions returns a valid configuration with package defaults.
func DefaultOptions() Options {
	return Options{
		MaxConcurrency: DefaultMaxConcurrency,
		MaxAttempts:    defaultAttempts,
	}
}

func (o Options) validate() error {
	if o.MaxConcurrency < 1 {
		return &ConfigError{Field: "MaxConcurrency", Value: o.MaxConcurrency}
	}
	if o.MaxAttempts < 1 {
		return &ConfigError{Field: "MaxAttempts", Value: o.MaxAttempts}
	}
	return nil
}

func (o *Options) fillDefaults() {
	if o.Backoff == nil {
		o.Backoff = ExponentialBackoff(defaultInitialRetry, defaultMaxRetry)
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}

// submitConfig collects the per-task knobs of a single submission.
type submitConfig struct {
	id      string
	ctx     context.Context
	timeout time.Duration
	policy  RetryPolicy
}

// SubmitOption customizes a single submission.
type SubmitOption func(*submitConfig)

// WithID supplies the task id instead of the pool's monotonic
// assignment. The id stays stable across retries.
func WithID(id string) SubmitOption {
	return func(c *submitConfig) { c.id = id }
}

// WithContext attaches a context to the task. Cancellation is observed
// between attempts and during backoff waits; a running body is not
// preempted.
func WithContext(ctx context.Context) SubmitOption {
	return func(c *submitConfig) { c.ctx = ctx }
}

// WithTimeout races each attempt against d. A lapsed attempt settles
// as a TimeoutError and follows the ordinary retry path.
func WithTimeout(d time.Duration) SubmitOption {
	return func(c *submitConfig) { c.timeout = d }
}

// WithRetryPolicy overrides the pool's default policy for this task.
func WithRetryPolicy(p RetryPolicy) SubmitOption {
	return func(c *submitConfig) { c.policy = p }
}
