package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWait_ResolvedByFire(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))

	w1 := n.Wait(time.Second)
	w2 := n.Wait(0)
	if n.PendingWaiters() != 2 {
		t.Fatalf("expected 2 pending waiters, got %d", n.PendingWaiters())
	}

	n.Fire("x", 1)

	for i, w := range []*Waiter{w1, w2} {
		args, err := w.Await(context.Background())
		if err != nil {
			t.Fatalf("waiter %d: unexpected error: %v", i, err)
		}
		if len(args) != 2 || args[0] != "x" || args[1] != 1 {
			t.Errorf("waiter %d: unexpected args %v", i, args)
		}
	}
	if n.PendingWaiters() != 0 {
		t.Errorf("expected no pending waiters, got %d", n.PendingWaiters())
	}
}

func TestWait_ResolvedOnlyOnce(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))

	w := n.Wait(0)
	n.Fire("first")
	n.Fire("second")

	if args := w.Args(); len(args) != 1 || args[0] != "first" {
		t.Errorf("expected [first], got %v", args)
	}
}

func TestWait_Timeout(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))

	w := n.Wait(10 * time.Millisecond)

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("waiter did not time out")
	}

	if !errors.Is(w.Err(), ErrEventTimeout) {
		t.Errorf("expected ErrEventTimeout, got %v", w.Err())
	}
	if n.PendingWaiters() != 0 {
		t.Errorf("expected timed out waiter to be removed, got %d pending", n.PendingWaiters())
	}

	// A later fire must not resolve the expired waiter.
	n.Fire("late")
	if w.Args() != nil {
		t.Errorf("expected no args after timeout, got %v", w.Args())
	}
	if !errors.Is(w.Err(), ErrEventTimeout) {
		t.Errorf("expected error to stay ErrEventTimeout, got %v", w.Err())
	}
}

func TestWait_NotResolvedByRejectedDispatch(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))
	n.Pause()

	w := n.Wait(0)
	n.Fire()

	select {
	case <-w.Done():
		t.Fatal("expected waiter to stay pending")
	default:
	}

	n.Resume()
	n.Fire()
	if _, err := w.Await(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWait_RegisteredDuringHandler(t *testing.T) {
	n := New(nil)

	var w *Waiter
	n.ConnectFunc("", func(caller *Node, args ...any) error {
		if w == nil {
			w = n.Wait(0)
		}
		return nil
	})

	n.Fire("now")

	select {
	case <-w.Done():
	default:
		t.Fatal("expected waiter registered by a handler to resolve on the same dispatch")
	}
}

func TestWaiter_Cancel(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))

	w := n.Wait(time.Minute)
	if !w.Cancel() {
		t.Fatal("expected Cancel to report a pending waiter")
	}
	if w.Cancel() {
		t.Error("expected second Cancel to report false")
	}
	if !errors.Is(w.Err(), ErrWaitCancelled) {
		t.Errorf("expected ErrWaitCancelled, got %v", w.Err())
	}

	n.Fire()
	if w.Args() != nil {
		t.Error("expected cancelled waiter not to resolve")
	}
}

func TestWaiter_AwaitContext(t *testing.T) {
	n := New(nil)
	w := n.Wait(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := w.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if n.PendingWaiters() != 1 {
		t.Error("expected waiter to stay registered after the context ended")
	}
	w.Cancel()
}

func TestWaiter_PendingAccessors(t *testing.T) {
	n := New(nil)
	w := n.Wait(0)

	if w.Args() != nil || w.Err() != nil {
		t.Error("expected nil args and error while pending")
	}
	w.Cancel()
}
