package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Default, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestDoRetriesRetryableKind(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Base: time.Millisecond, Cap: 5 * time.Millisecond}
	err := Do(context.Background(), p, func() error {
		calls++
		if calls < 3 {
			return a4ferr.New("test", a4ferr.KindNetwork, "transient", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnNonRetryableKind(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Default, func() error {
		calls++
		return a4ferr.New("test", a4ferr.KindSubprocess, "permanent", nil)
	})
	if err == nil {
		t.Fatal("expected the non-retryable error to propagate")
	}
	if calls != 1 {
		t.Errorf("expected a non-retryable error to stop after one call, got %d calls", calls)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 2, Base: time.Millisecond, Cap: 5 * time.Millisecond}
	err := Do(context.Background(), p, func() error {
		calls++
		return a4ferr.New("test", a4ferr.KindNetwork, "always fails", nil)
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if calls != p.MaxAttempts {
		t.Errorf("expected %d calls, got %d", p.MaxAttempts, calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{MaxAttempts: 5, Base: 50 * time.Millisecond, Cap: time.Second}
	calls := 0
	err := Do(ctx, p, func() error {
		calls++
		return a4ferr.New("test", a4ferr.KindNetwork, "transient", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the cancelled context to stop retrying after the first call, got %d calls", calls)
	}
}
