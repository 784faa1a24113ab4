package taskpool

import (
	"errors"
	"testing"
	"time"
)

func TestBoundedRetryDecisions(t *testing.T) {
	pol := BoundedRetry{MaxAttempts: 3, Backoff: ConstantBackoff(50 * time.Millisecond)}

	for attempt := 1; attempt < 3; attempt++ {
		retry, delay := pol.Decide(attempt, errBoom)
		if !retry || delay != 50*time.Millisecond {
			t.Fatalf("Decide(%d) = %v, %s; want retry with 50ms", attempt, retry, delay)
		}
	}
	if retry, _ := pol.Decide(3, errBoom); retry {
		t.Fatal("Decide(3) authorized a 4th attempt")
	}
}

func TestBoundedRetryDeterminism(t *testing.T) {
	pol := BoundedRetry{MaxAttempts: 4, Backoff: ExponentialBackoff(time.Millisecond, time.Second)}

	for attempt := 1; attempt <= 4; attempt++ {
		r1, d1 := pol.Decide(attempt, errBoom)
		r2, d2 := pol.Decide(attempt, errBoom)
		if r1 != r2 || d1 != d2 {
			t.Fatalf("Decide(%d) not deterministic: (%v,%s) vs (%v,%s)", attempt, r1, d1, r2, d2)
		}
	}
}

func TestBoundedRetryNilBackoff(t *testing.T) {
	pol := BoundedRetry{MaxAttempts: 2}
	retry, delay := pol.Decide(1, errBoom)
	if !retry || delay != 0 {
		t.Fatalf("Decide with nil backoff = %v, %s; want retry with zero delay", retry, delay)
	}
}

func TestPermanentClassification(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) != nil")
	}
	wrapped := Permanent(errBoom)
	if !IsPermanent(wrapped) {
		t.Fatal("IsPermanent(Permanent(err)) = false")
	}
	if !errors.Is(wrapped, errBoom) {
		t.Fatal("Permanent breaks errors.Is on the cause")
	}
	if IsPermanent(errBoom) {
		t.Fatal("IsPermanent(plain err) = true")
	}

	pol := BoundedRetry{MaxAttempts: 10, Backoff: ConstantBackoff(time.Millisecond)}
	if retry, _ := pol.Decide(1, wrapped); retry {
		t.Fatal("permanent error was retried")
	}
}

func TestTaskErrorUnwrap(t *testing.T) {
	te := &TaskError{ID: "x", Attempt: 2, Err: errBoom}
	if !errors.Is(te, errBoom) {
		t.Fatal("TaskError does not unwrap to its cause")
	}
}
