package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_Success(t *testing.T) {
	e := NewExecutor()

	result := e.Execute(context.Background(), "ok", func(context.Context) error { return nil })
	if !result.Success {
		t.Error("expected success")
	}
	if result.Panicked || result.Error != nil || result.Skipped {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecutor_Error(t *testing.T) {
	e := NewExecutor()
	boom := errors.New("boom")

	result := e.Execute(context.Background(), "fail", func(context.Context) error { return boom })
	if result.Success {
		t.Error("expected failure")
	}
	if !errors.Is(result.Error, boom) {
		t.Errorf("expected boom, got %v", result.Error)
	}
}

func TestExecutor_Panic(t *testing.T) {
	var reported any
	e := NewExecutor(WithExecutorPanicHandler(func(name string, v any, stack []byte) {
		reported = v
	}))

	result := e.Execute(context.Background(), "panic", func(context.Context) error {
		panic("oops")
	})

	if !result.Panicked {
		t.Fatal("expected panic to be recorded")
	}
	if result.PanicValue != "oops" || reported != "oops" {
		t.Errorf("expected panic value oops, got %v / %v", result.PanicValue, reported)
	}
	if len(result.PanicStack) == 0 {
		t.Error("expected a stack trace")
	}
	if result.Success {
		t.Error("expected no success")
	}
}

func TestExecutor_PanickingPanicHandler(t *testing.T) {
	e := NewExecutor(WithExecutorPanicHandler(func(string, any, []byte) {
		panic("handler failed too")
	}))

	result := e.Execute(context.Background(), "panic", func(context.Context) error {
		panic("oops")
	})
	if !result.Panicked {
		t.Error("expected panic to be recorded")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	e := NewExecutor()

	result := e.ExecuteWithTimeout(context.Background(), "slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, 10*time.Millisecond)

	if !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", result.Error)
	}
	if result.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestExecutor_Skipped(t *testing.T) {
	e := NewExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	result := e.Execute(ctx, "skip", func(context.Context) error {
		called = true
		return nil
	})

	if called {
		t.Error("expected task not to run")
	}
	if !result.Skipped || !errors.Is(result.Error, context.Canceled) {
		t.Errorf("unexpected result: %+v", result)
	}
}
