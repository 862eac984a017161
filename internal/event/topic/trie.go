package topic

import (
	"sort"
	"sync"
)

// Trie stores path patterns and finds those matching a concrete path.
// The zero value is ready to use and it is safe for concurrent use.
type Trie struct {
	mu   sync.RWMutex
	root *trieNode
	size int
}

type trieNode struct {
	children map[string]*trieNode
	pattern  Topic
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// NewTrie creates an empty trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Insert adds a pattern. It reports false for an invalid or duplicate
// pattern.
func (t *Trie) Insert(pattern Topic) bool {
	if !pattern.IsValid() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == nil {
		t.root = newTrieNode()
	}

	node := t.root
	for _, seg := range pattern.Segments() {
		next, ok := node.children[seg]
		if !ok {
			next = newTrieNode()
			node.children[seg] = next
		}
		node = next
	}
	if node.terminal {
		return false
	}
	node.terminal = true
	node.pattern = pattern
	t.size++
	return true
}

// Delete removes a pattern and prunes branches left empty. It reports
// whether the pattern was present.
func (t *Trie) Delete(pattern Topic) bool {
	if pattern == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == nil {
		return false
	}

	segs := pattern.Segments()
	path := make([]*trieNode, 0, len(segs)+1)
	node := t.root
	path = append(path, node)
	for _, seg := range segs {
		node = node.children[seg]
		if node == nil {
			return false
		}
		path = append(path, node)
	}
	if !node.terminal {
		return false
	}
	node.terminal = false
	node.pattern = ""
	t.size--

	for i := len(segs); i > 0; i-- {
		n := path[i]
		if n.terminal || len(n.children) > 0 {
			break
		}
		delete(path[i-1].children, segs[i-1])
	}
	return true
}

// Contains reports whether exactly pattern was inserted.
func (t *Trie) Contains(pattern Topic) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(pattern)
	return node != nil && node.terminal
}

func (t *Trie) find(pattern Topic) *trieNode {
	if pattern == "" || t.root == nil {
		return nil
	}
	node := t.root
	for _, seg := range pattern.Segments() {
		node = node.children[seg]
		if node == nil {
			return nil
		}
	}
	return node
}

// visit identifies a (node, position) pair already explored by Match.
type visit struct {
	node *trieNode
	pos  int
}

// Match returns every stored pattern matching path, sorted.
func (t *Trie) Match(path Topic) []Topic {
	if path == "" {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nil {
		return nil
	}

	segs := path.Segments()
	seen := make(map[visit]struct{})
	found := make(map[Topic]struct{})

	var walk func(n *trieNode, pos int)
	walk = func(n *trieNode, pos int) {
		key := visit{n, pos}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		if pos == len(segs) && n.terminal {
			found[n.pattern] = struct{}{}
		}
		if multi := n.children[WildcardMulti]; multi != nil {
			for i := pos; i <= len(segs); i++ {
				walk(multi, i)
			}
		}
		if pos == len(segs) {
			return
		}
		if exact := n.children[segs[pos]]; exact != nil {
			walk(exact, pos+1)
		}
		if single := n.children[WildcardSingle]; single != nil {
			walk(single, pos+1)
		}
	}
	walk(t.root, 0)

	if len(found) == 0 {
		return nil
	}
	out := make([]Topic, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// All returns every stored pattern, sorted.
func (t *Trie) All() []Topic {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Topic
	var collect func(n *trieNode)
	collect = func(n *trieNode) {
		if n == nil {
			return
		}
		if n.terminal {
			out = append(out, n.pattern)
		}
		for _, c := range n.children {
			collect(c)
		}
	}
	collect(t.root)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the number of stored patterns.
func (t *Trie) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Clear removes every pattern.
func (t *Trie) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = newTrieNode()
	t.size = 0
}
