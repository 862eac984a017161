package event

import (
	"fmt"
	"reflect"
	"slices"
)

// Connect registers h at DefaultPriority.
func (n *Node) Connect(name string, h Handler) (*Connection, error) {
	return n.ConnectWithPriority(DefaultPriority, name, h)
}

// ConnectFunc registers a function handler at DefaultPriority.
func (n *Node) ConnectFunc(name string, fn HandlerFunc) (*Connection, error) {
	if fn == nil {
		return nil, ErrMissingConnectionData
	}
	return n.ConnectWithPriority(DefaultPriority, name, fn)
}

// ConnectWithPriority registers h under priority p. Connections of one
// priority run in registration order; groups run from the highest priority
// down.
func (n *Node) ConnectWithPriority(p Priority, name string, h Handler) (*Connection, error) {
	if p.IsSentinel() {
		return nil, fmt.Errorf("%w: %s is reserved", ErrInvalidPriority, p)
	}
	if isNilHandler(h) {
		return nil, ErrMissingConnectionData
	}

	c := newConnection(p, name, h)

	n.mu.Lock()
	g := n.groupLocked(p)
	g.connections = append(g.connections, c)
	n.mu.Unlock()

	return c, nil
}

// groupLocked returns the group for p, creating it and inserting p into
// the sorted order on first use.
func (n *Node) groupLocked(p Priority) *group {
	if g, ok := n.groups[p]; ok {
		return g
	}

	g := &group{orderIndex: len(n.order)}
	n.groups[p] = g
	n.order = append(n.order, p)

	// Insertion sort of the new key; swapped groups trade orderIndex.
	for i := len(n.order) - 1; i > 0 && n.order[i-1] > n.order[i]; i-- {
		n.order[i-1], n.order[i] = n.order[i], n.order[i-1]
		n.groups[n.order[i-1]].orderIndex = i - 1
		n.groups[n.order[i]].orderIndex = i
	}

	return g
}

// removeGroupLocked drops an empty group and reindexes the groups above it.
func (n *Node) removeGroupLocked(p Priority) {
	g, ok := n.groups[p]
	if !ok {
		return
	}
	idx := g.orderIndex
	n.order = slices.Delete(n.order, idx, idx+1)
	delete(n.groups, p)
	for i := idx; i < len(n.order); i++ {
		n.groups[n.order[i]].orderIndex = i
	}
}

// Disconnect removes every connection matching f from all priorities and
// returns how many were removed.
func (n *Node) Disconnect(f Filter) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.order) == 0 {
		return 0
	}
	return n.disconnectLocked(len(n.order)-1, f)
}

// DisconnectConnection removes exactly c. It reports whether c was
// registered on this node.
func (n *Node) DisconnectConnection(c *Connection) bool {
	if c == nil {
		return false
	}
	return n.Disconnect(ByConnection(c)) > 0
}

// DisconnectWithPriority removes connections matching f from the groups
// at or below p. p must have a registered group.
func (n *Node) DisconnectWithPriority(p Priority, f Filter) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	g, ok := n.groups[p]
	if !ok {
		return 0, fmt.Errorf("%w: %s on %s", ErrUnknownPriority, p, n.label())
	}
	return n.disconnectLocked(g.orderIndex, f), nil
}

// DisconnectAll applies Disconnect to the node and every descendant.
func (n *Node) DisconnectAll(f Filter) int {
	removed := n.Disconnect(f)
	for _, c := range n.Children() {
		removed += c.DisconnectAll(f)
	}
	return removed
}

// DisconnectAllWithPriority applies DisconnectWithPriority to the node and
// every descendant. Nodes without a group at p are skipped.
func (n *Node) DisconnectAllWithPriority(p Priority, f Filter) int {
	removed, _ := n.DisconnectWithPriority(p, f)
	for _, c := range n.Children() {
		removed += c.DisconnectAllWithPriority(p, f)
	}
	return removed
}

// disconnectLocked walks groups from order[top] down to the lowest,
// removing matches. Iteration runs backwards so removals never shift an
// index still to be visited.
func (n *Node) disconnectLocked(top int, f Filter) int {
	removed := 0
	for i := top; i >= 0; i-- {
		p := n.order[i]
		g := n.groups[p]
		for j := len(g.connections) - 1; j >= 0; j-- {
			c := g.connections[j]
			if !f.matches(c) {
				continue
			}
			c.active.Store(false)
			g.connections = slices.Delete(g.connections, j, j+1)
			removed++
		}
		if len(g.connections) == 0 {
			n.removeGroupLocked(p)
		}
	}
	return removed
}

// Priorities returns the registered priorities in ascending order.
func (n *Node) Priorities() []Priority {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.order) == 0 {
		return nil
	}
	out := make([]Priority, len(n.order))
	copy(out, n.order)
	return out
}

// Connections returns every connection in dispatch order, ignoring pause
// state: highest priority first, registration order within a priority.
func (n *Node) Connections() []*Connection {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*Connection
	for i := len(n.order) - 1; i >= 0; i-- {
		out = append(out, n.groups[n.order[i]].connections...)
	}
	return out
}

// ConnectionCount returns the number of registered connections.
func (n *Node) ConnectionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, g := range n.groups {
		count += len(g.connections)
	}
	return count
}

// HasConnections reports whether any connection is registered.
func (n *Node) HasConnections() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.order) > 0
}

// isNilHandler reports whether h is nil or wraps a nil function or pointer.
func isNilHandler(h Handler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
