package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/dshills/eventsignal/internal/event/dispatch"
	"github.com/dshills/eventsignal/internal/event/topic"
)

// Default sizing for the pattern match cache.
const (
	DefaultMatchCacheSize = 256
)

// Tree addresses nodes by dot-separated path. Nodes are created on first
// use together with any missing parents, and each node is named by its
// path.
//
// Observers registered with a wildcard pattern are connected to every
// matching node, including nodes created after the observer.
type Tree struct {
	mu    sync.RWMutex
	root  *Node
	nodes map[topic.Topic]*Node

	patterns  *topic.Trie
	observers map[topic.Topic][]*observer

	matches *expirable.LRU[topic.Topic, []*Node]

	defaults []Option
	loop     *dispatch.Loop
	logger   zerolog.Logger

	cacheSize int
	cacheTTL  time.Duration
}

// observer is one pattern registration and the connections it made.
type observer struct {
	priority Priority
	name     string
	handler  Handler
	conns    []*Connection
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithNodeDefaults sets options applied to every node the tree creates,
// before the options passed to Node.
func WithNodeDefaults(opts ...Option) TreeOption {
	return func(t *Tree) {
		t.defaults = append(t.defaults, opts...)
	}
}

// WithTreeLogger sets the logger for the tree and the nodes it creates.
func WithTreeLogger(l zerolog.Logger) TreeOption {
	return func(t *Tree) {
		t.logger = l
	}
}

// WithLoop sets the loop used by Post.
func WithLoop(l *dispatch.Loop) TreeOption {
	return func(t *Tree) {
		t.loop = l
	}
}

// WithMatchCache sizes the pattern match cache. A zero ttl keeps entries
// until the tree changes.
func WithMatchCache(size int, ttl time.Duration) TreeOption {
	return func(t *Tree) {
		if size > 0 {
			t.cacheSize = size
		}
		if ttl > 0 {
			t.cacheTTL = ttl
		}
	}
}

// NewTree creates a tree holding only its unnamed root.
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		nodes:     make(map[topic.Topic]*Node),
		patterns:  topic.NewTrie(),
		observers: make(map[topic.Topic][]*observer),
		logger:    zerolog.Nop(),
		cacheSize: DefaultMatchCacheSize,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.root = New(nil, WithLogger(t.logger))
	t.matches = expirable.NewLRU[topic.Topic, []*Node](t.cacheSize, nil, t.cacheTTL)
	return t
}

// Root returns the unnamed root node. Top-level paths are its children.
func (t *Tree) Root() *Node {
	return t.root
}

// Node returns the node at path, creating it and any missing parents.
// opts apply only when the node itself is created.
func (t *Tree) Node(path string, opts ...Option) (*Node, error) {
	p := topic.Topic(path)
	if !p.IsPath() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	t.mu.RLock()
	n, ok := t.nodes[p]
	t.mu.RUnlock()
	if ok {
		return n, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.root
	for _, ancestor := range p.Ancestors() {
		parent = t.ensureLocked(ancestor, parent, nil)
	}
	return t.ensureLocked(p, parent, opts), nil
}

// MustNode is like Node but panics on an invalid path.
func (t *Tree) MustNode(path string, opts ...Option) *Node {
	n, err := t.Node(path, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// ensureLocked returns the node at p, creating it under parent.
func (t *Tree) ensureLocked(p topic.Topic, parent *Node, opts []Option) *Node {
	if n, ok := t.nodes[p]; ok {
		return n
	}

	all := make([]Option, 0, len(t.defaults)+len(opts)+2)
	all = append(all, WithLogger(t.logger))
	all = append(all, t.defaults...)
	all = append(all, opts...)
	all = append(all, WithName(p.String()))

	n := New(parent, all...)
	t.nodes[p] = n
	t.matches.Purge()

	for _, pattern := range t.patterns.Match(p) {
		for _, o := range t.observers[pattern] {
			c, err := n.ConnectWithPriority(o.priority, o.name, o.handler)
			if err != nil {
				continue
			}
			o.conns = append(o.conns, c)
		}
	}

	t.logger.Debug().Str("path", p.String()).Msg("node created")
	return n
}

// Lookup returns the node at path without creating it.
func (t *Tree) Lookup(path string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[topic.Topic(path)]
	return n, ok
}

// Match returns the nodes whose path matches pattern, sorted by path.
func (t *Tree) Match(pattern string) ([]*Node, error) {
	p := topic.Topic(pattern)
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, pattern)
	}

	// Node creation purges the cache under the write lock, so holding the
	// read lock keeps a computed entry from outliving a purge.
	t.mu.RLock()
	defer t.mu.RUnlock()

	if cached, ok := t.matches.Get(p); ok {
		return slices.Clone(cached), nil
	}

	var paths []topic.Topic
	for path := range t.nodes {
		if path.Matches(p) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	out := make([]*Node, len(paths))
	for i, path := range paths {
		out[i] = t.nodes[path]
	}

	t.matches.Add(p, out)
	return slices.Clone(out), nil
}

// Observe connects h under priority p to every node matching pattern,
// now and as matching nodes are created. It returns the connections made
// to existing nodes.
func (t *Tree) Observe(pattern string, p Priority, name string, h Handler) ([]*Connection, error) {
	pt := topic.Topic(pattern)
	if !pt.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, pattern)
	}
	if p.IsSentinel() {
		return nil, fmt.Errorf("%w: %s is reserved", ErrInvalidPriority, p)
	}
	if isNilHandler(h) {
		return nil, ErrMissingConnectionData
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	o := &observer{priority: p, name: name, handler: h}
	t.patterns.Insert(pt)
	t.observers[pt] = append(t.observers[pt], o)

	for path, n := range t.nodes {
		if !path.Matches(pt) {
			continue
		}
		c, err := n.ConnectWithPriority(p, name, h)
		if err != nil {
			return nil, err
		}
		o.conns = append(o.conns, c)
	}

	t.logger.Debug().
		Str("pattern", pattern).
		Int("nodes", len(o.conns)).
		Msg("observer added")

	return slices.Clone(o.conns), nil
}

// Unobserve removes every observer registered for pattern along with the
// connections they made. It returns the number of connections removed.
func (t *Tree) Unobserve(pattern string) int {
	pt := topic.Topic(pattern)

	t.mu.Lock()
	observers := t.observers[pt]
	delete(t.observers, pt)
	t.patterns.Delete(pt)
	nodes := make(map[*Connection]*Node)
	for _, o := range observers {
		for _, c := range o.conns {
			nodes[c] = nil
		}
	}
	for _, n := range t.nodes {
		for _, c := range n.Connections() {
			if _, ok := nodes[c]; ok {
				nodes[c] = n
			}
		}
	}
	t.mu.Unlock()

	removed := 0
	for c, n := range nodes {
		if n != nil && n.DisconnectConnection(c) {
			removed++
		}
	}
	return removed
}

// Patterns returns the observed patterns, sorted.
func (t *Tree) Patterns() []topic.Topic {
	return t.patterns.All()
}

// Paths returns every node path, sorted.
func (t *Tree) Paths() []topic.Topic {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]topic.Topic, 0, len(t.nodes))
	for p := range t.nodes {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of nodes, not counting the root.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Walk visits tree nodes depth-first in creation order. Returning false
// from fn skips the node's subtree.
func (t *Tree) Walk(fn func(path topic.Topic, n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children() {
			p := topic.Topic(c.Name())
			if _, ok := t.Lookup(c.Name()); !ok {
				continue
			}
			if fn(p, c) {
				walk(c)
			}
		}
	}
	walk(t.root)
}

// Fire fires the node at path.
func (t *Tree) Fire(path string, args ...any) error {
	n, ok := t.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, path)
	}
	return n.Fire(args...)
}

// FireAll fires the node at path and its subtree.
func (t *Tree) FireAll(path string, args ...any) error {
	n, ok := t.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, path)
	}
	return n.FireAll(args...)
}

// Post queues a fire of the node at path on the tree's loop. The node must
// exist when Post is called.
func (t *Tree) Post(ctx context.Context, path string, args ...any) error {
	if t.loop == nil {
		return dispatch.ErrNotRunning
	}
	n, ok := t.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, path)
	}
	return t.loop.Post(ctx, path, func(context.Context) error {
		return n.Fire(args...)
	})
}
