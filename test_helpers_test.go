package taskpool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestPool(t *testing.T, maxConcurrency, maxAttempts int, backoff BackoffFunc) *Pool[int] {
	t.Helper()

	p, err := New[int](Options{
		MaxConcurrency: maxConcurrency,
		MaxAttempts:    maxAttempts,
		Backoff:        backoff,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// failNTimes returns a task that fails its first n attempts and then
// succeeds with v, plus the attempt counter.
func failNTimes(n int32, v int) (Task[int], *atomic.Int32) {
	var attempts atomic.Int32
	return func(context.Context) (int, error) {
		if attempts.Add(1) <= n {
			return 0, errBoom
		}
		return v, nil
	}, &attempts
}

func alwaysFail() (Task[int], *atomic.Int32) {
	var attempts atomic.Int32
	return func(context.Context) (int, error) {
		attempts.Add(1)
		return 0, errBoom
	}, &attempts
}

func mustDrain(t *testing.T, p *Pool[int], timeout time.Duration) DrainResult[int] {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := p.WaitForDrain(ctx)
	if err != nil {
		t.Fatalf("WaitForDrain: %v", err)
	}
	return res
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}
