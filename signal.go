package taskpool

// DrainResult partitions every task the store has archived into its
// terminal outcome. The maps are shared between all waiters of the
// same drain cycle and must be treated as read-only.
type DrainResult[T any] struct {
	Succeeded map[string]T
	Failed    map[string]error
}

func emptyDrainResult[T any]() DrainResult[T] {
	return DrainResult[T]{
		Succeeded: make(map[string]T),
		Failed:    make(map[string]error),
	}
}

// drainGen is one submission/drain cycle. snap is written before done
// is closed and never afterwards, so waiters that saw done closed read
// a settled snapshot.
type drainGen[T any] struct {
	done chan struct{}
	snap DrainResult[T]
}

// completionSignal is a re-armable drain future. It fires at most once
// per cycle; a submission after a drain starts a fresh generation so
// later waiters block for the next cycle instead of reading stale
// results. All methods except waiting on gen.done require the pool
// mutex.
type completionSignal[T any] struct {
	gen     *drainGen[T]
	drained bool
}

// newCompletionSignal starts in the drained state with an empty
// partition: a pool with no submissions yet is trivially drained.
func newCompletionSignal[T any]() *completionSignal[T] {
	g := &drainGen[T]{
		done: make(chan struct{}),
		snap: emptyDrainResult[T](),
	}
	close(g.done)
	return &completionSignal[T]{gen: g, drained: true}
}

// rearm reverts the drained state on a new submission.
func (s *completionSignal[T]) rearm() {
	if !s.drained {
		return
	}
	s.drained = false
	s.gen = &drainGen[T]{done: make(chan struct{})}
}

// fire resolves the current generation with snap. Calling fire on an
// already drained signal is a no-op, preserving exactly-once delivery
// per cycle.
func (s *completionSignal[T]) fire(snap DrainResult[T]) {
	if s.drained {
		return
	}
	s.gen.snap = snap
	s.drained = true
	close(s.gen.done)
}
