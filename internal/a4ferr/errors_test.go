package a4ferr

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{New("op", KindConfig, "bad", nil), 2},
		{New("op", KindLockConflict, "locked", nil), 3},
		{New("op", KindServiceUnavailable, "down", nil), 4},
		{New("op", KindInternal, "oops", nil), 1},
		{fmt.Errorf("wrapped: %w", New("op", KindConfig, "bad", nil)), 2},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestIsMatchesBareKind(t *testing.T) {
	err := New("pool.Read", KindNotFound, "missing", nil)
	if !errors.Is(err, KindNotFound) {
		t.Error("expected errors.Is to match the error's own Kind")
	}
	if errors.Is(err, KindNetwork) {
		t.Error("expected errors.Is not to match an unrelated Kind")
	}
}

func TestUnwrapReachesInner(t *testing.T) {
	inner := errors.New("disk full")
	err := New("pool.Write", KindInternal, "writing artifact", inner)
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped inner error")
	}
}

func TestRetryableAndFatal(t *testing.T) {
	if !KindNetwork.Retryable() || !KindServiceUnavailable.Retryable() {
		t.Error("expected network kinds to be retryable")
	}
	if KindConfig.Retryable() {
		t.Error("expected KindConfig not to be retryable")
	}
	if !KindConfig.Fatal() || !KindLockConflict.Fatal() {
		t.Error("expected config and lock-conflict kinds to be fatal")
	}
	if KindNotFound.Fatal() {
		t.Error("expected KindNotFound not to be fatal")
	}
}
