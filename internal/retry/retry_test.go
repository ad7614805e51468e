package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fastPolicy = Policy{MaxAttempts: 2, Delay: time.Millisecond}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy, "op", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestValue_TransientThenSuccess(t *testing.T) {
	calls := 0
	v, err := Value(context.Background(), fastPolicy, "op", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", Transient(errors.New("503"))
		}
		return "AAPL", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "AAPL" {
		t.Errorf("expected AAPL, got %q", v)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_TransientExhausted(t *testing.T) {
	cause := errors.New("connection refused")
	calls := 0
	err := Do(context.Background(), fastPolicy, "symbol search", func(context.Context) error {
		calls++
		return Transient(cause)
	})
	if calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", calls)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if ex.Attempts != 2 || ex.Op != "symbol search" {
		t.Errorf("unexpected exhausted error: %+v", ex)
	}
	if !errors.Is(err, cause) {
		t.Error("expected error chain to contain the cause")
	}
}

func TestDo_PermanentNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy, "op", func(context.Context) error {
		calls++
		return errors.New("404")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if IsTransient(err) {
		t.Error("permanent error reported as transient")
	}
}

func TestDo_AttemptsClampedToOne(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{MaxAttempts: 0}, "op", func(context.Context) error {
		calls++
		return Transient(errors.New("timeout"))
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Hour}, "op", func(context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestTransient_Nil(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
}
