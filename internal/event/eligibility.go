package event

import "time"

// Reason explains a dispatch eligibility decision.
type Reason int

const (
	// ReasonDisabled rejects: the node is disabled.
	ReasonDisabled Reason = iota

	// ReasonGhost accepts: the node is a ghost, its handlers are skipped.
	ReasonGhost

	// ReasonNoConnections rejects: nothing is connected.
	ReasonNoConnections

	// ReasonFullyPaused rejects: every registered priority is paused.
	ReasonFullyPaused

	// ReasonLimitReached rejects: the dispatch limit was reached.
	ReasonLimitReached

	// ReasonCoolingDown rejects: the cooldown since the last dispatch has
	// not elapsed.
	ReasonCoolingDown

	// ReasonAllListening accepts: nothing is paused.
	ReasonAllListening

	// ReasonPartiallyListening accepts: some priorities are above the
	// pause threshold.
	ReasonPartiallyListening
)

// String returns the reason code.
func (r Reason) String() string {
	switch r {
	case ReasonDisabled:
		return "isDisabled"
	case ReasonGhost:
		return "isGhost"
	case ReasonNoConnections:
		return "noConnections"
	case ReasonFullyPaused:
		return "fullyPaused"
	case ReasonLimitReached:
		return "limitReached"
	case ReasonCoolingDown:
		return "coolingDown"
	case ReasonAllListening:
		return "allListening"
	case ReasonPartiallyListening:
		return "partiallyListening"
	default:
		return "unknown"
	}
}

// Accepted reports whether the reason allows a dispatch.
func (r Reason) Accepted() bool {
	switch r {
	case ReasonGhost, ReasonAllListening, ReasonPartiallyListening:
		return true
	default:
		return false
	}
}

// Observer receives the eligibility reason computed for a node.
type Observer func(n *Node, reason Reason)

// State is the node's pause/enable state.
type State int

const (
	// StateListening means no priority is paused.
	StateListening State = iota

	// StatePartiallyPaused means some registered priorities are paused.
	StatePartiallyPaused

	// StateFullyPaused means every registered priority is paused.
	StateFullyPaused

	// StateDisabled means the node cannot dispatch until enabled.
	StateDisabled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StatePartiallyPaused:
		return "partiallyPaused"
	case StateFullyPaused:
		return "fullyPaused"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ValidateNextDispatch reports whether the node would dispatch now, and
// passes the reason to obs when it is non-nil. It does not change state.
func (n *Node) ValidateNextDispatch(obs Observer) bool {
	n.mu.Lock()
	ok, reason := n.evaluateLocked(n.now())
	n.mu.Unlock()

	if obs != nil {
		obs(n, reason)
	}
	return ok
}

// Eligibility returns the reason ValidateNextDispatch would report.
func (n *Node) Eligibility() Reason {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, reason := n.evaluateLocked(n.now())
	return reason
}

// evaluateLocked runs the eligibility checks in order. The first matching
// check decides.
func (n *Node) evaluateLocked(now time.Time) (bool, Reason) {
	switch {
	case !n.enabled:
		return false, ReasonDisabled
	case n.settings.Ghost:
		return true, ReasonGhost
	case len(n.order) == 0:
		return false, ReasonNoConnections
	case n.pauseThreshold >= n.order[len(n.order)-1]:
		return false, ReasonFullyPaused
	case n.settings.DispatchLimit > 0 && n.stats.DispatchCount >= n.settings.DispatchLimit:
		return false, ReasonLimitReached
	case n.settings.Cooldown > 0 && !n.stats.LastDispatched.IsZero() &&
		now.Sub(n.stats.LastDispatched) < n.settings.Cooldown:
		return false, ReasonCoolingDown
	case n.pauseThreshold == PauseNone:
		return true, ReasonAllListening
	default:
		return true, ReasonPartiallyListening
	}
}

// State returns the node's current pause/enable state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case !n.enabled:
		return StateDisabled
	case n.pauseThreshold == PauseNone:
		return StateListening
	case n.pauseThreshold == PauseAll:
		return StateFullyPaused
	case len(n.order) > 0 && n.pauseThreshold >= n.order[len(n.order)-1]:
		return StateFullyPaused
	default:
		return StatePartiallyPaused
	}
}
