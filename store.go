package taskpool

import "sync"

// Stats is a point-in-time view of pool accounting. Tasks waiting out
// a retry backoff are counted as Running, since they still hold their
// concurrency slot.
type Stats struct {
	Queued    int
	Running   int
	Succeeded int
	Abandoned int
	Total     int
}

// resultStore archives terminal task records. Records are written
// exactly once, on the Succeeded or Abandoned transition, and are
// never mutated afterwards, so a reader can never observe a
// half-updated record.
//
// The store accumulates for the lifetime of the pool; it is cleared
// only by an explicit reset.
type resultStore[T any] struct {
	mu        sync.RWMutex
	records   map[string]TaskRecord[T]
	succeeded int
	abandoned int
}

func newResultStore[T any]() *resultStore[T] {
	return &resultStore[T]{
		records: make(map[string]TaskRecord[T]),
	}
}

func (s *resultStore[T]) put(rec TaskRecord[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	switch rec.State {
	case StateSucceeded:
		s.succeeded++
	case StateAbandoned:
		s.abandoned++
	}
}

func (s *resultStore[T]) get(id string) (TaskRecord[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *resultStore[T]) has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok
}

func (s *resultStore[T]) counts() (succeeded, abandoned int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.succeeded, s.abandoned
}

// partition splits every archived id into exactly one of the two
// terminal outcome maps.
func (s *resultStore[T]) partition() (succeeded map[string]T, failed map[string]error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	succeeded = make(map[string]T, s.succeeded)
	failed = make(map[string]error, s.abandoned)
	for id, rec := range s.records {
		if rec.State == StateSucceeded {
			succeeded[id] = rec.Result
		} else {
			failed[id] = rec.LastErr
		}
	}
	return succeeded, failed
}

func (s *resultStore[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]TaskRecord[T])
	s.succeeded = 0
	s.abandoned = 0
}
