package event

import (
	"context"
	"sync"
	"time"
)

// Waiter is a one-shot pending result for a node's next dispatch.
// It settles exactly once: with the dispatch arguments, with
// ErrEventTimeout, or with ErrWaitCancelled.
type Waiter struct {
	node  *Node
	done  chan struct{}
	once  sync.Once
	args  []any
	err   error
	timer *time.Timer
}

// Wait registers a waiter resolved by the node's next dispatch that runs
// its handlers. A positive timeout fails the waiter with ErrEventTimeout
// and removes it from the node if no dispatch happens first.
func (n *Node) Wait(timeout time.Duration) *Waiter {
	w := &Waiter{
		node: n,
		done: make(chan struct{}),
	}

	n.mu.Lock()
	n.waiters = append(n.waiters, w)
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, w.expire)
	}
	n.mu.Unlock()

	return w
}

// PendingWaiters returns the number of unsettled waiters on the node.
func (n *Node) PendingWaiters() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.waiters)
}

// resolveWaiters settles every pending waiter with args.
func (n *Node) resolveWaiters(args []any) {
	n.mu.Lock()
	waiters := n.waiters
	n.waiters = nil
	n.mu.Unlock()

	if len(waiters) == 0 {
		return
	}

	result := append([]any(nil), args...)
	for _, w := range waiters {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.settle(result, nil)
	}
}

// removeWaiter unregisters w and reports whether it was still pending.
func (n *Node) removeWaiter(w *Waiter) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, pending := range n.waiters {
		if pending == w {
			n.waiters = append(n.waiters[:i], n.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Waiter) expire() {
	if w.node.removeWaiter(w) {
		w.settle(nil, ErrEventTimeout)
	}
}

func (w *Waiter) settle(args []any, err error) {
	w.once.Do(func() {
		w.args = args
		w.err = err
		close(w.done)
	})
}

// Cancel removes a pending waiter and fails it with ErrWaitCancelled.
// It reports whether the waiter was still pending.
func (w *Waiter) Cancel() bool {
	if !w.node.removeWaiter(w) {
		return false
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.settle(nil, ErrWaitCancelled)
	return true
}

// Done is closed once the waiter settles.
func (w *Waiter) Done() <-chan struct{} {
	return w.done
}

// Args returns the dispatch arguments, or nil if the waiter has not
// resolved successfully.
func (w *Waiter) Args() []any {
	select {
	case <-w.done:
		return w.args
	default:
		return nil
	}
}

// Err returns the failure of a settled waiter, or nil.
func (w *Waiter) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Await blocks until the waiter settles or ctx is done. A done context
// leaves the waiter registered.
func (w *Waiter) Await(ctx context.Context) ([]any, error) {
	select {
	case <-w.done:
		return w.args, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
