// Package taskpool provides a bounded-concurrency scheduler for
// asynchronous work items with per-task retry, outcome recording,
// and a re-armable drain signal.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - A hard cap on logically in-flight tasks, held under every
//     interleaving of submissions and completions
//   - Bounded retries with explicit backoff, never unbounded requeue
//   - One task's failure never blocks or aborts another task
//   - A pool instance is reusable across submission/drain cycles
//
// Architecture overview
//
// The pool is composed of four loosely coupled parts:
//
//   1. Admission (fifoQueue)
//      A growable circular buffer holding pending records in strict
//      submission order. Retried work re-enters at the tail, yielding
//      priority to untouched queued work.
//
//   2. Dispatch (Pool)
//      An iterative loop, serialized by the pool mutex, that admits
//      queued records while concurrency slots remain. Admission
//      bookkeeping completes before a task body starts; task bodies
//      run outside the mutex in their own goroutines.
//
//   3. Retry (RetryPolicy)
//      A pure decision function over (attempt, error). The default
//      BoundedRetry policy retries every retryable error until the
//      configured number of execution starts, with a caller-supplied
//      or exponential backoff. Errors wrapped with Permanent are
//      abandoned immediately.
//
//   4. Completion (resultStore, completionSignal)
//      Terminal outcomes are archived exactly once and partitioned
//      into succeeded and failed maps. WaitForDrain resolves when no
//      task is queued or running; a new submission re-arms the signal
//      for the next cycle.
//
// Task lifecycle
//
// A task moves Queued -> Running -> Succeeded, or Running -> Failed ->
// Queued while retries remain, or Failed -> Abandoned once the policy
// declines. Succeeded and Abandoned are terminal. The id assigned at
// submission stays stable across retries, so aggregated results refer
// to the original submission.
//
// The concurrency slot of a failed task stays held for the duration of
// its backoff wait. The drain predicate therefore cannot fire while a
// retry is pending, and Stats counts such tasks as Running.
//
// Error handling
//
// The pool distinguishes between two classes of errors:
//
//   - Call errors: ConfigError from New, ErrPoolClosed from Submit.
//     These are surfaced synchronously to the caller.
//   - Task errors: returned by task bodies, produced by panic
//     recovery, or per-attempt timeouts. These are absorbed, retried
//     per policy, and surface only through Result, Stats, and the
//     failed partition of WaitForDrain.
//
// Panics inside task bodies are recovered and treated as ordinary
// failures to prevent pool corruption.
//
// Observability
//
// Hooks are injected, never global: a MetricsPolicy implementation
// (atomic, no-op, or Prometheus-backed) receives admission and
// settlement counts, and an optional OnTaskError callback observes
// each failed attempt without influencing retry decisions.
//
// Intended use cases
//
// taskpool suits workloads that fan a dynamic set of I/O-bound items
// through a fixed budget of in-flight operations: crawling, bulk
// loading, remote calls with flaky endpoints. It does not attempt
// distributed scheduling, persistence across restarts, or priority
// ordering; admission is strictly FIFO.
package taskpool
