package taskpool

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPoolClosed is returned by Submit after Close has been called.
	ErrPoolClosed = errors.New("taskpool: pool closed")

	// ErrNilTask is returned when a submitted task func is nil.
	ErrNilTask = errors.New("taskpool: task func is nil")

	// ErrDuplicateID is returned when a caller-supplied id collides
	// with a live or archived task.
	ErrDuplicateID = errors.New("taskpool: duplicate task id")

	// ErrCanceled is recorded as the terminal error of a task removed
	// via Cancel before it ever ran.
	ErrCanceled = errors.New("taskpool: task canceled")
)

// ConfigError reports an invalid constructor argument. It is returned
// synchronously from New and never from any later call.
type ConfigError struct {
	Field string
	Value int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("taskpool: config: %s must be >= 1, got %d", e.Field, e.Value)
}

// TaskError wraps an error produced by a task body. It is never
// surfaced to the submitter; it appears only in stored records and in
// the failed partition of a drain result.
type TaskError struct {
	ID      string
	Attempt int
	Err     error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("taskpool: task %s attempt %d: %v", e.ID, e.Attempt, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// TimeoutError marks an attempt that exceeded its per-task timeout.
// It unwraps to context.DeadlineExceeded and counts as an ordinary
// task failure for retry purposes.
type TimeoutError struct {
	ID      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("taskpool: task %s timed out after %s", e.ID, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }
