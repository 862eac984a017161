package event

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Stats records a node's dispatch history. It is only updated by dispatch.
type Stats struct {
	// DispatchCount is the number of dispatches that ran the node's handlers.
	DispatchCount int

	// LastDispatched is when the last counted dispatch started.
	LastDispatched time.Time

	// RejectedWhilePaused counts dispatch attempts refused because every
	// priority was paused.
	RejectedWhilePaused int
}

// group holds every connection registered under one priority.
type group struct {
	// orderIndex is the group's position in Node.order.
	orderIndex int

	// connections are kept in registration order.
	connections []*Connection
}

// Node is one addressable point of an event tree.
//
// A node owns its connections, pause state, stats and pending waiters; all
// of them are mutated only through the node's methods. Handlers always run
// without the node's lock held, so a handler may connect, disconnect, pause
// or fire on any node, including its own.
type Node struct {
	mu sync.Mutex

	name     string
	parent   *Node
	children []*Node

	groups map[Priority]*group
	order  []Priority

	pauseThreshold Priority
	enabled        bool
	settings       Settings
	stats          Stats
	waiters        []*Waiter

	// active is the propagation chain of the dispatch currently running
	// through this node, if any.
	active *chain

	observer Observer
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a node. When parent is non-nil the node is appended to the
// parent's children.
func New(parent *Node, opts ...Option) *Node {
	n := &Node{
		parent:         parent,
		groups:         make(map[Priority]*group),
		pauseThreshold: PauseNone,
		enabled:        true,
		logger:         zerolog.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}

	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, n)
		parent.mu.Unlock()
	}

	return n
}

// Name returns the node's label.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's children in creation order.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Descendants returns every descendant in depth-first pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Settings returns a copy of the node's settings.
func (n *Node) Settings() Settings {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := n.settings
	s.Linked = append([]*Node(nil), n.settings.Linked...)
	return s
}

// SetBubbling enables or disables bubbling.
func (n *Node) SetBubbling(enabled bool) {
	n.mu.Lock()
	n.settings.Bubbling = enabled
	n.mu.Unlock()
}

// SetDispatchLimit changes the dispatch cap. Values <= 0 remove it.
func (n *Node) SetDispatchLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	n.mu.Lock()
	n.settings.DispatchLimit = limit
	n.mu.Unlock()
}

// SetCooldown changes the minimum interval between dispatches.
func (n *Node) SetCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	n.mu.Lock()
	n.settings.Cooldown = d
	n.mu.Unlock()
}

// Link adds nodes fired alongside this one. Self links and duplicates are
// ignored.
func (n *Node) Link(nodes ...*Node) {
	n.mu.Lock()
	defer n.mu.Unlock()

outer:
	for _, l := range nodes {
		if l == nil || l == n {
			continue
		}
		for _, existing := range n.settings.Linked {
			if existing == l {
				continue outer
			}
		}
		n.settings.Linked = append(n.settings.Linked, l)
	}
}

// Unlink removes a linked node. It reports whether the node was linked.
func (n *Node) Unlink(l *Node) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, existing := range n.settings.Linked {
		if existing == l {
			n.settings.Linked = append(n.settings.Linked[:i], n.settings.Linked[i+1:]...)
			return true
		}
	}
	return false
}

// Stats returns a snapshot of the node's dispatch stats.
func (n *Node) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

// ResetStats clears the dispatch count, timestamps and rejection counter,
// which also lifts a reached dispatch limit.
func (n *Node) ResetStats() {
	n.mu.Lock()
	n.stats = Stats{}
	n.mu.Unlock()
}

// SetObserver replaces the node's dispatch observer.
func (n *Node) SetObserver(obs Observer) {
	n.mu.Lock()
	n.observer = obs
	n.mu.Unlock()
}

// SetGhost turns the node into a ghost.
func (n *Node) SetGhost() {
	n.mu.Lock()
	n.settings.Ghost = true
	n.mu.Unlock()
}

// UnsetGhost turns a ghost node back into a regular node.
func (n *Node) UnsetGhost() {
	n.mu.Lock()
	n.settings.Ghost = false
	n.mu.Unlock()
}

// IsGhost reports whether the node is a ghost.
func (n *Node) IsGhost() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.settings.Ghost
}

// label is the name used in logs and errors.
func (n *Node) label() string {
	if n.name == "" {
		return "<unnamed>"
	}
	return n.name
}
