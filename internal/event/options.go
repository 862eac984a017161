package event

import (
	"time"

	"github.com/rs/zerolog"
)

// Settings holds the dispatch behaviour of a node.
type Settings struct {
	// Bubbling re-dispatches the parent after the node and its linked
	// nodes have fired.
	Bubbling bool

	// DispatchLimit is the maximum number of dispatches. Zero means unlimited.
	DispatchLimit int

	// Linked nodes are fired alongside the node on every dispatch.
	Linked []*Node

	// Ghost nodes skip their own connections but still link and bubble.
	Ghost bool

	// Cooldown is the minimum time between two dispatches. Zero disables it.
	Cooldown time.Duration
}

// Option configures a node at construction.
type Option func(*Node)

// WithName labels the node. Trees use the node's path as its name.
func WithName(name string) Option {
	return func(n *Node) {
		n.name = name
	}
}

// WithSettings replaces the node's settings wholesale.
func WithSettings(s Settings) Option {
	return func(n *Node) {
		s.Linked = append([]*Node(nil), s.Linked...)
		n.settings = s
	}
}

// WithBubbling enables or disables bubbling to the parent.
func WithBubbling(enabled bool) Option {
	return func(n *Node) {
		n.settings.Bubbling = enabled
	}
}

// WithDispatchLimit caps the number of dispatches. Values <= 0 remove the cap.
func WithDispatchLimit(limit int) Option {
	return func(n *Node) {
		if limit < 0 {
			limit = 0
		}
		n.settings.DispatchLimit = limit
	}
}

// WithLinked adds nodes fired alongside this one.
func WithLinked(nodes ...*Node) Option {
	return func(n *Node) {
		for _, l := range nodes {
			if l != nil && l != n {
				n.settings.Linked = append(n.settings.Linked, l)
			}
		}
	}
}

// WithGhost marks the node as a ghost.
func WithGhost(ghost bool) Option {
	return func(n *Node) {
		n.settings.Ghost = ghost
	}
}

// WithCooldown sets the minimum interval between dispatches.
func WithCooldown(d time.Duration) Option {
	return func(n *Node) {
		if d < 0 {
			d = 0
		}
		n.settings.Cooldown = d
	}
}

// WithObserver installs an observer that receives the eligibility reason
// of every dispatch attempt.
func WithObserver(obs Observer) Option {
	return func(n *Node) {
		n.observer = obs
	}
}

// WithLogger sets the node's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Node) {
		n.logger = l
	}
}

// WithClock overrides the time source used for stats and cooldowns.
func WithClock(now func() time.Time) Option {
	return func(n *Node) {
		if now != nil {
			n.now = now
		}
	}
}

// WithPauseThreshold starts the node paused at or below p.
func WithPauseThreshold(p Priority) Option {
	return func(n *Node) {
		n.pauseThreshold = p
	}
}

// WithDisabled creates the node disabled.
func WithDisabled() Option {
	return func(n *Node) {
		n.enabled = false
	}
}
