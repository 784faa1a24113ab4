package taskpool

import (
	"context"
	"time"
)

// TaskState describes where a task is in its lifecycle.
//
// Transitions: Queued -> Running -> {Succeeded | Failed};
// Failed -> Queued while retries remain, Failed -> Abandoned once
// exhausted. Succeeded and Abandoned are terminal.
type TaskState int

const (
	StateQueued TaskState = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateAbandoned
)

func (s TaskState) String() string {
	switch s {
	case StateQueued:
		return "Queued"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateAbandoned:
		return "Abandoned"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s TaskState) Terminal() bool {
	return s == StateSucceeded || s == StateAbandoned
}

// Task is the unit of work executed by the pool. The context is the
// task's submit-time context, narrowed by the per-task timeout when one
// is set. The pool makes no assumptions about what the body does.
type Task[T any] func(ctx context.Context) (T, error)

// TaskRecord is an immutable snapshot of a task's accounting state.
// Result is meaningful only when State is Succeeded; LastErr is set
// once the task has failed at least once.
type TaskRecord[T any] struct {
	ID       string
	State    TaskState
	Attempts int
	Result   T
	LastErr  error
}

// record is the live, mutable counterpart of TaskRecord. All fields
// except ctx/fn/timeout/policy are guarded by the pool mutex.
type record[T any] struct {
	id      string
	fn      Task[T]
	ctx     context.Context
	timeout time.Duration
	policy  RetryPolicy // nil means use the pool default

	state    TaskState
	attempts int
	result   T
	lastErr  error

	// canceled suppresses the outcome of a Running task: it settles
	// as Abandoned with no retry.
	canceled bool
}

func (r *record[T]) snapshot() TaskRecord[T] {
	return TaskRecord[T]{
		ID:       r.id,
		State:    r.state,
		Attempts: r.attempts,
		Result:   r.result,
		LastErr:  r.lastErr,
	}
}
