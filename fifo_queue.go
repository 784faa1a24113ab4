// fifo_queue.go
package taskpool

const initialFifoCapacity = 64

// fifoQueue is a growable circular buffer holding the pool's pending
// records in strict admission order. No priorities, no aging, no
// reordering.
//
// Cancelled entries are removed lazily: Discard drops them from the
// live count immediately, and Pop skips over them when they surface
// at the head. The queue is not safe for concurrent use; the pool
// mutex guards every call.
type fifoQueue[T any] struct {
	buf        []*record[T] // circular buffer
	head, tail int          // read/write indices
	size       int          // slots in use, discarded entries included
	live       int          // entries still in state Queued
}

func newFifoQueue[T any](cap int) *fifoQueue[T] {
	if cap <= 0 {
		cap = initialFifoCapacity
	}
	return &fifoQueue[T]{
		buf: make([]*record[T], cap),
	}
}

// Len returns the number of records still waiting to run.
func (q *fifoQueue[T]) Len() int { return q.live }

// Push appends a record at the tail. The buffer doubles when full, so
// admission never drops work.
func (q *fifoQueue[T]) Push(r *record[T]) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = r
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++
	q.live++
}

// Pop removes and returns the oldest record still in state Queued.
// Entries discarded by cancellation are dropped on the way.
func (q *fifoQueue[T]) Pop() (*record[T], bool) {
	for q.size > 0 {
		r := q.buf[q.head]
		q.buf[q.head] = nil
		q.head++
		if q.head == len(q.buf) {
			q.head = 0
		}
		q.size--
		if r.state == StateQueued {
			q.live--
			return r, true
		}
	}
	return nil, false
}

// Discard notes that a queued record was cancelled. The caller must
// have already moved the record out of state Queued; the slot itself
// is reclaimed by a later Pop.
func (q *fifoQueue[T]) Discard() {
	q.live--
}

func (q *fifoQueue[T]) grow() {
	next := make([]*record[T], len(q.buf)*2)
	for i := 0; i < q.size; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
	q.tail = q.size
}
