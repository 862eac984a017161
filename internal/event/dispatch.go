package event

import "sync/atomic"

// chain is the propagation state shared by a node and the parents it
// bubbles to during one dispatch.
type chain struct {
	stopped atomic.Bool
}

// operation spans one top-level Fire or FireAll call.
type operation struct {
	// linked records nodes already reached through links so that link
	// cycles terminate.
	linked map[*Node]struct{}
}

func newOperation(origin *Node) *operation {
	return &operation{linked: map[*Node]struct{}{origin: {}}}
}

// fireOptions alters a single node dispatch.
type fireOptions struct {
	// ghost skips the node's handlers, stats and waiters.
	ghost bool

	// noBubble suppresses the parent dispatch.
	noBubble bool

	// noLinked suppresses linked dispatches.
	noLinked bool

	// relay marks a dispatch reached by bubbling. A relayed node without
	// connections forwards the chain instead of ending it.
	relay bool
}

// Fire dispatches args to the node's handlers, then to linked nodes, then
// bubbles to the parent when bubbling is enabled.
//
// A rejected dispatch is not an error: Fire returns nil and the reason goes
// to the node's observer. The first handler error aborts the dispatch and is
// returned as a *HandlerError. Handler panics are not recovered.
func (n *Node) Fire(args ...any) error {
	return n.dispatch(n, args, fireOptions{}, newOperation(n), nil)
}

// FireAll fires the node and then every descendant depth-first, all with
// bubbling suppressed, and finishes with a single ghost pass on the node so
// that the dispatch bubbles upward exactly once.
//
// The node's own dispatch and the closing ghost pass share one chain, so a
// handler on the node that stops propagation also stops the bubble.
func (n *Node) FireAll(args ...any) error {
	op := newOperation(n)
	ch := &chain{}
	if err := n.fireSubtree(args, op, ch); err != nil {
		return err
	}
	return n.dispatch(n, args, fireOptions{ghost: true, noLinked: true}, op, ch)
}

// fireSubtree dispatches n within ch and each descendant in its own chain.
func (n *Node) fireSubtree(args []any, op *operation, ch *chain) error {
	if err := n.dispatch(n, args, fireOptions{noBubble: true}, op, ch); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := c.fireSubtree(args, op, nil); err != nil {
			return err
		}
	}
	return nil
}

// StopPropagating ends bubbling for the dispatch chain currently running
// through the node. Outside a dispatch it does nothing.
func (n *Node) StopPropagating() {
	n.mu.Lock()
	if n.active != nil {
		n.active.stopped.Store(true)
	}
	n.mu.Unlock()
}

// IsPropagating reports whether the dispatch running through the node will
// still bubble. It is true when no dispatch is running.
func (n *Node) IsPropagating() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active == nil || !n.active.stopped.Load()
}

// dispatch runs one node: eligibility, handlers, waiters, then propagation.
func (n *Node) dispatch(caller *Node, args []any, opts fireOptions, op *operation, ch *chain) error {
	if ch == nil {
		ch = &chain{}
	}

	ghost, ok := n.admit(opts)
	if !ok {
		return nil
	}

	prev := n.enter(ch)
	defer n.leave(prev)

	if !ghost {
		if err := n.runHandlers(caller, args); err != nil {
			return err
		}
		n.resolveWaiters(args)
	}

	return n.propagate(caller, args, opts, op, ch)
}

// admit decides whether the dispatch proceeds and whether it runs as a
// ghost pass.
func (n *Node) admit(opts fireOptions) (ghost, ok bool) {
	n.mu.Lock()
	if opts.ghost {
		enabled := n.enabled
		n.mu.Unlock()
		return true, enabled
	}

	now := n.now()
	ok, reason := n.evaluateLocked(now)
	if reason == ReasonFullyPaused {
		n.stats.RejectedWhilePaused++
	}
	// Counted under the same lock as the limit and cooldown checks.
	if ok && reason != ReasonGhost {
		n.stats.DispatchCount++
		n.stats.LastDispatched = now
	}
	obs := n.observer
	n.mu.Unlock()

	if obs != nil {
		obs(n, reason)
	}

	if !ok && opts.relay && reason == ReasonNoConnections {
		return true, true
	}
	if !ok {
		n.logger.Debug().
			Str("node", n.label()).
			Str("reason", reason.String()).
			Msg("dispatch rejected")
		return false, false
	}
	return reason == ReasonGhost, true
}

// enter marks ch as the chain running through the node and returns the
// previous one, which is non-nil when a handler re-fired the node.
func (n *Node) enter(ch *chain) *chain {
	n.mu.Lock()
	prev := n.active
	n.active = ch
	n.mu.Unlock()
	return prev
}

func (n *Node) leave(prev *chain) {
	n.mu.Lock()
	n.active = prev
	n.mu.Unlock()
}

// runHandlers invokes a snapshot of the eligible connections, highest
// priority first. Connections removed by an earlier handler of the same
// dispatch are skipped.
func (n *Node) runHandlers(caller *Node, args []any) error {
	n.mu.Lock()
	var conns []*Connection
	for i := len(n.order) - 1; i >= 0; i-- {
		p := n.order[i]
		if p <= n.pauseThreshold {
			break
		}
		conns = append(conns, n.groups[p].connections...)
	}
	n.mu.Unlock()

	for _, c := range conns {
		if !c.IsActive() {
			continue
		}
		if err := c.handler.Handle(caller, args...); err != nil {
			n.logger.Warn().
				Err(err).
				Str("node", n.label()).
				Str("connection", c.name).
				Msg("handler failed")
			return &HandlerError{
				Node:       n.name,
				Connection: c.name,
				Priority:   c.priority,
				Err:        err,
			}
		}
	}
	return nil
}

// propagate fires linked nodes, each in a fresh chain, and then bubbles to
// the parent within ch unless a handler stopped it.
func (n *Node) propagate(caller *Node, args []any, opts fireOptions, op *operation, ch *chain) error {
	n.mu.Lock()
	linked := append([]*Node(nil), n.settings.Linked...)
	bubbling := n.settings.Bubbling
	n.mu.Unlock()

	if !opts.noLinked {
		for _, l := range linked {
			if _, seen := op.linked[l]; seen {
				continue
			}
			op.linked[l] = struct{}{}
			if err := l.dispatch(l, args, fireOptions{}, op, nil); err != nil {
				return err
			}
		}
	}

	if opts.noBubble || !bubbling || n.parent == nil {
		return nil
	}

	if ch.stopped.Load() {
		return nil
	}

	return n.parent.dispatch(caller, args, fireOptions{relay: true}, op, ch)
}
