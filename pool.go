package taskpool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Pool runs submitted tasks under a fixed concurrency cap, retries
// failures per a RetryPolicy, archives terminal outcomes, and signals
// a re-armable drain condition once no task is queued or in flight.
//
// All accounting state (queue, active count, closed flag, live record
// map) is guarded by one mutex, so no two dispatch passes ever
// interleave their counter mutations. Task bodies run outside the
// mutex in their own goroutines.
//
// A Pool has no background goroutine of its own and no teardown
// requirement; the same instance can serve any number of
// submission/drain cycles.
type Pool[T any] struct {
	mu     sync.Mutex
	opts   Options
	policy RetryPolicy

	queue  *fifoQueue[T]
	tasks  map[string]*record[T] // live (non-terminal) records by id
	active int
	closed bool
	nextID uint64

	store  *resultStore[T]
	signal *completionSignal[T]
}

// New validates opts and builds a Pool. It fails with a ConfigError if
// either bound is below 1.
func New[T any](opts Options) (*Pool[T], error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.fillDefaults()
	return &Pool[T]{
		opts:   opts,
		policy: BoundedRetry{MaxAttempts: opts.MaxAttempts, Backoff: opts.Backoff},
		queue:  newFifoQueue[T](initialFifoCapacity),
		tasks:  make(map[string]*record[T]),
		store:  newResultStore[T](),
		signal: newCompletionSignal[T](),
	}, nil
}

// Submit queues a task and returns its id. It fails with ErrPoolClosed
// after Close. A submission into a drained pool re-arms the drain
// signal, so a later WaitForDrain blocks for the new cycle.
func (p *Pool[T]) Submit(task Task[T], opts ...SubmitOption) (string, error) {
	if task == nil {
		return "", ErrNilTask
	}
	cfg := submitConfig{ctx: context.Background()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", ErrPoolClosed
	}
	id := cfg.id
	if id == "" {
		p.nextID++
		id = "task-" + strconv.FormatUint(p.nextID, 10)
	}
	if _, live := p.tasks[id]; live || p.store.has(id) {
		p.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	r := &record[T]{
		id:      id,
		fn:      task,
		ctx:     cfg.ctx,
		timeout: cfg.timeout,
		policy:  cfg.policy,
		state:   StateQueued,
	}
	p.tasks[id] = r
	p.queue.Push(r)
	p.signal.rearm()
	p.opts.Metrics.IncSubmitted()
	p.dispatchLocked()
	p.mu.Unlock()

	lg.FromContext(cfg.ctx).Info("task submitted", lg.String("task_id", id))
	return id, nil
}

// Close blocks future submissions. Tasks already queued or running
// continue to completion and are reflected in the eventual drain
// result.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Cancel removes a queued task, finalizing it as Abandoned without
// ever running it. It returns true only for that transition. A running
// task is not preemptible: Cancel marks it so its eventual outcome is
// suppressed and it settles as Abandoned, but returns false.
func (p *Pool[T]) Cancel(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.tasks[id]
	if !ok {
		return false
	}
	switch r.state {
	case StateQueued:
		r.state = StateAbandoned
		r.lastErr = ErrCanceled
		p.queue.Discard()
		p.archiveLocked(r)
		p.opts.Metrics.SetQueued(p.queue.Len())
		p.checkDrainLocked()
		return true
	default:
		// Running, or Failed awaiting its backoff. The slot is still
		// held; settlement will observe the mark and abandon.
		r.canceled = true
		return false
	}
}

// Stats reports current accounting. Tasks waiting out a backoff count
// as Running.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	succeeded, abandoned := p.store.counts()
	return Stats{
		Queued:    p.queue.Len(),
		Running:   p.active,
		Succeeded: succeeded,
		Abandoned: abandoned,
		Total:     p.queue.Len() + p.active + succeeded + abandoned,
	}
}

// Result returns a snapshot of the task's record: the live record for
// a task still in flight, or the archived terminal record.
func (p *Pool[T]) Result(id string) (TaskRecord[T], bool) {
	p.mu.Lock()
	if r, ok := p.tasks[id]; ok {
		snap := r.snapshot()
		p.mu.Unlock()
		return snap, true
	}
	p.mu.Unlock()
	return p.store.get(id)
}

// WaitForDrain blocks until no task is queued or in flight, then
// returns the partition of every archived id into succeeded and
// failed. It resolves immediately when the pool is already drained,
// and repeated calls without an intervening submission return the
// identical snapshot. Concurrent waiters on the same cycle all resolve
// together with the same snapshot.
func (p *Pool[T]) WaitForDrain(ctx context.Context) (DrainResult[T], error) {
	p.mu.Lock()
	gen := p.signal.gen
	p.mu.Unlock()

	select {
	case <-gen.done:
		return gen.snap, nil
	case <-ctx.Done():
		return DrainResult[T]{}, ctx.Err()
	}
}

// ResetResults clears archived outcomes between independent batches.
// Live tasks are unaffected; if the pool is drained the stored
// snapshot reverts to the empty partition.
func (p *Pool[T]) ResetResults() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store.reset()
	if p.signal.drained {
		g := &drainGen[T]{done: make(chan struct{}), snap: emptyDrainResult[T]()}
		close(g.done)
		p.signal.gen = g
	}
}

// dispatchLocked admits queued tasks while slots remain. It is the
// only place a task enters StateRunning, and it runs entirely under
// the pool mutex: admission bookkeeping completes before the task body
// starts. Iterative on purpose; a recursive "run next" would grow the
// stack under long task chains.
func (p *Pool[T]) dispatchLocked() {
	for p.active < p.opts.MaxConcurrency {
		r, ok := p.queue.Pop()
		if !ok {
			break
		}
		r.state = StateRunning
		r.attempts++
		p.active++
		go p.run(r)
	}
	p.opts.Metrics.SetQueued(p.queue.Len())
	p.opts.Metrics.SetRunning(p.active)
}

func (p *Pool[T]) run(r *record[T]) {
	res, err := p.execute(r)
	p.settle(r, res, err)
}

// execute runs one attempt with panic recovery and the optional
// per-task timeout. A timed-out attempt leaves its body goroutine
// running; only its result is discarded.
func (p *Pool[T]) execute(r *record[T]) (res T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			res = zero
			err = fmt.Errorf("taskpool: task panicked: %v", rec)
			lg.FromContext(r.ctx).Error("task panicked",
				lg.String("task_id", r.id), lg.Any("panic", rec))
		}
	}()

	if err := r.ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	if r.timeout <= 0 {
		return r.fn(r.ctx)
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	type outcome struct {
		res T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				var zero T
				ch <- outcome{zero, fmt.Errorf("taskpool: task panicked: %v", rec)}
			}
		}()
		v, e := r.fn(ctx)
		ch <- outcome{v, e}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{ID: r.id, Timeout: r.timeout}
		}
		return zero, ctx.Err()
	}
}

// settle consumes one attempt's outcome: archive on success, consult
// the retry policy on failure, requeue after backoff or abandon. The
// backoff wait happens outside the mutex and keeps the concurrency
// slot held, so the drain predicate cannot fire while a retry is
// pending.
func (p *Pool[T]) settle(r *record[T], res T, err error) {
	logger := lg.FromContext(r.ctx).With(lg.String("task_id", r.id))

	p.mu.Lock()
	if r.canceled {
		p.abandonLocked(r, ErrCanceled)
		p.releaseLocked()
		p.mu.Unlock()
		logger.Info("task canceled", lg.Int("attempts", r.attempts))
		return
	}
	if err == nil {
		r.state = StateSucceeded
		r.result = res
		p.archiveLocked(r)
		p.releaseLocked()
		p.mu.Unlock()
		logger.Info("task succeeded", lg.Int("attempts", r.attempts))
		return
	}

	r.state = StateFailed
	r.lastErr = &TaskError{ID: r.id, Attempt: r.attempts, Err: err}
	attempt := r.attempts
	policy := r.policy
	if policy == nil {
		policy = p.policy
	}
	p.mu.Unlock()

	if p.opts.OnTaskError != nil {
		p.opts.OnTaskError(r.id, attempt, err)
	}

	// Context cancellation is final regardless of remaining attempts.
	retry, delay := false, time.Duration(0)
	ctxErr := r.ctx.Err()
	if ctxErr == nil {
		retry, delay = policy.Decide(attempt, err)
	}
	if !retry {
		logger.Error("task abandoned", lg.Int("attempt", attempt), lg.Any("error", err))
		p.mu.Lock()
		p.abandonLocked(r, ctxErr)
		p.releaseLocked()
		p.mu.Unlock()
		return
	}

	logger.Warn("task attempt failed; backing off",
		lg.Int("attempt", attempt),
		lg.String("sleep", delay.String()),
		lg.Any("error", err),
	)
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			if !timer.Stop() {
				<-timer.C // drain if timer fired
			}
			logger.Info("task canceled during backoff", lg.Any("reason", r.ctx.Err()))
			p.mu.Lock()
			p.abandonLocked(r, r.ctx.Err())
			p.releaseLocked()
			p.mu.Unlock()
			return
		}
	}

	p.mu.Lock()
	if r.canceled {
		p.abandonLocked(r, ErrCanceled)
		p.releaseLocked()
		p.mu.Unlock()
		return
	}
	// Retried work joins the tail: untouched queued work keeps
	// priority.
	r.state = StateQueued
	p.queue.Push(r)
	p.opts.Metrics.IncRetried()
	p.releaseLocked()
	p.mu.Unlock()
}

// abandonLocked finalizes r as Abandoned. cause, when non-nil,
// replaces the recorded error.
func (p *Pool[T]) abandonLocked(r *record[T], cause error) {
	r.state = StateAbandoned
	if cause != nil {
		r.lastErr = &TaskError{ID: r.id, Attempt: r.attempts, Err: cause}
	}
	p.archiveLocked(r)
}

// archiveLocked moves a terminal record into the result store.
func (p *Pool[T]) archiveLocked(r *record[T]) {
	delete(p.tasks, r.id)
	p.store.put(r.snapshot())
	switch r.state {
	case StateSucceeded:
		p.opts.Metrics.IncSucceeded()
	case StateAbandoned:
		p.opts.Metrics.IncAbandoned()
	}
}

// releaseLocked returns a settled task's concurrency slot, admits any
// waiting work, and fires the drain signal when nothing remains.
func (p *Pool[T]) releaseLocked() {
	p.active--
	p.dispatchLocked()
	p.checkDrainLocked()
}

func (p *Pool[T]) checkDrainLocked() {
	if p.active != 0 || p.queue.Len() != 0 {
		return
	}
	succeeded, failed := p.store.partition()
	p.signal.fire(DrainResult[T]{Succeeded: succeeded, Failed: failed})
}
