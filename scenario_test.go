package taskpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tp "github.com/Minori-ty/utils/taskpool"
)

// Mixed-outcome wave: A succeeds slowly, B always fails and exhausts
// its two attempts, C succeeds quickly, all under a cap of two slots.
func TestMixedWave(t *testing.T) {
	pool, err := tp.New[string](tp.Options{
		MaxConcurrency: 2,
		MaxAttempts:    2,
		Backoff:        tp.ConstantBackoff(50 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var cur, peak atomic.Int32
	enter := func() {
		n := cur.Add(1)
		for {
			m := peak.Load()
			if n <= m || peak.CompareAndSwap(m, n) {
				return
			}
		}
	}

	var bAttempts atomic.Int32
	errB := errors.New("b is broken")

	if _, err := pool.Submit(func(context.Context) (string, error) {
		enter()
		defer cur.Add(-1)
		time.Sleep(10 * time.Millisecond)
		return "a-done", nil
	}, tp.WithID("A")); err != nil {
		t.Fatalf("submit A: %v", err)
	}
	if _, err := pool.Submit(func(context.Context) (string, error) {
		enter()
		defer cur.Add(-1)
		bAttempts.Add(1)
		return "", errB
	}, tp.WithID("B")); err != nil {
		t.Fatalf("submit B: %v", err)
	}
	if _, err := pool.Submit(func(context.Context) (string, error) {
		enter()
		defer cur.Add(-1)
		time.Sleep(5 * time.Millisecond)
		return "c-done", nil
	}, tp.WithID("C")); err != nil {
		t.Fatalf("submit C: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	res, err := pool.WaitForDrain(ctx)
	if err != nil {
		t.Fatalf("WaitForDrain: %v", err)
	}

	if res.Succeeded["A"] != "a-done" || res.Succeeded["C"] != "c-done" {
		t.Fatalf("succeeded = %v; want A and C", res.Succeeded)
	}
	if len(res.Succeeded) != 2 {
		t.Fatalf("succeeded has %d entries; want 2", len(res.Succeeded))
	}
	if !errors.Is(res.Failed["B"], errB) {
		t.Fatalf("failed[B] = %v; want wrapped errB", res.Failed["B"])
	}
	if len(res.Failed) != 1 {
		t.Fatalf("failed has %d entries; want 1", len(res.Failed))
	}
	if got := bAttempts.Load(); got != 2 {
		t.Fatalf("B attempts = %d; want 2", got)
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("observed %d concurrent tasks; cap is 2", got)
	}

	rec, ok := pool.Result("B")
	if !ok || rec.State != tp.StateAbandoned || rec.Attempts != 2 {
		t.Fatalf("record B = %+v, %v; want Abandoned after 2 attempts", rec, ok)
	}
}

// The same pool instance serves several submission/drain waves.
func TestPoolReuseAcrossWaves(t *testing.T) {
	pool, err := tp.New[int](tp.Options{MaxConcurrency: 4, MaxAttempts: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	total := 0
	for wave := 0; wave < 3; wave++ {
		for i := 0; i < 5; i++ {
			v := wave*10 + i
			if _, err := pool.Submit(func(context.Context) (int, error) { return v, nil }); err != nil {
				t.Fatalf("wave %d submit %d: %v", wave, i, err)
			}
		}
		total += 5

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		res, err := pool.WaitForDrain(ctx)
		cancel()
		if err != nil {
			t.Fatalf("wave %d drain: %v", wave, err)
		}
		if len(res.Succeeded) != total {
			t.Fatalf("wave %d: %d accumulated results; want %d", wave, len(res.Succeeded), total)
		}
	}

	st := pool.Stats()
	if st.Succeeded != total || st.Queued != 0 || st.Running != 0 {
		t.Fatalf("stats after waves = %+v", st)
	}
}
