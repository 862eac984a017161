package event

// Pause stops every priority from dispatching until resumed.
func (n *Node) Pause() {
	n.PauseWithPriority(PauseAll)
}

// PauseWithPriority skips every group at or below p on later dispatches.
// Groups above p keep running.
func (n *Node) PauseWithPriority(p Priority) {
	n.mu.Lock()
	n.pauseThreshold = p
	n.mu.Unlock()
}

// Resume makes every priority eligible again.
func (n *Node) Resume() {
	n.mu.Lock()
	n.pauseThreshold = PauseNone
	n.mu.Unlock()
}

// ResumeWithPriority makes priorities at or above p eligible again. It
// only ever lowers the threshold; once no registered priority remains
// paused the node is fully listening again.
func (n *Node) ResumeWithPriority(p Priority) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pauseThreshold == PauseNone {
		return
	}
	if p == PauseNone {
		n.pauseThreshold = PauseNone
		return
	}

	threshold := p - 1
	if threshold < n.pauseThreshold {
		n.pauseThreshold = threshold
	}
	if len(n.order) == 0 || n.pauseThreshold < n.order[0] {
		n.pauseThreshold = PauseNone
	}
}

// PauseAll pauses the node and every descendant.
func (n *Node) PauseAll() {
	n.PauseAllWithPriority(PauseAll)
}

// PauseAllWithPriority applies PauseWithPriority to the node and every
// descendant.
func (n *Node) PauseAllWithPriority(p Priority) {
	n.PauseWithPriority(p)
	for _, c := range n.Children() {
		c.PauseAllWithPriority(p)
	}
}

// ResumeAll resumes the node and every descendant.
func (n *Node) ResumeAll() {
	n.Resume()
	for _, c := range n.Children() {
		c.ResumeAll()
	}
}

// ResumeAllWithPriority applies ResumeWithPriority to the node and every
// descendant.
func (n *Node) ResumeAllWithPriority(p Priority) {
	n.ResumeWithPriority(p)
	for _, c := range n.Children() {
		c.ResumeAllWithPriority(p)
	}
}

// PauseThreshold returns the current threshold, PauseNone when listening.
func (n *Node) PauseThreshold() Priority {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pauseThreshold
}

// Enable allows the node to dispatch again.
func (n *Node) Enable() {
	n.mu.Lock()
	n.enabled = true
	n.mu.Unlock()
}

// Disable stops the node from dispatching regardless of other state.
func (n *Node) Disable() {
	n.mu.Lock()
	n.enabled = false
	n.mu.Unlock()
}

// EnableAll enables the node and every descendant.
func (n *Node) EnableAll() {
	n.Enable()
	for _, c := range n.Children() {
		c.EnableAll()
	}
}

// DisableAll disables the node and every descendant.
func (n *Node) DisableAll() {
	n.Disable()
	for _, c := range n.Children() {
		c.DisableAll()
	}
}

// IsEnabled reports whether the node is enabled.
func (n *Node) IsEnabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// IsListening reports whether the node is enabled with nothing paused.
func (n *Node) IsListening() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled && n.pauseThreshold == PauseNone
}
