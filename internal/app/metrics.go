package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks application activity across reloads.
type Metrics struct {
	// Synchronous fires
	fireCount   atomic.Uint64
	fireFailed  atomic.Uint64
	fireTotalNs atomic.Int64
	fireMinNs   atomic.Int64
	fireMaxNs   atomic.Int64

	// Handler invocations
	invocations atomic.Uint64

	// Commands
	commands       atomic.Uint64
	commandsFailed atomic.Uint64

	// Reloads
	reloads       atomic.Uint64
	reloadsFailed atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// First fire is always smaller.
	m.fireMinNs.Store(1<<63 - 1)
	return m
}

// RecordFire records one fire of a node and its outcome.
func (m *Metrics) RecordFire(duration time.Duration, err error) {
	ns := duration.Nanoseconds()

	m.fireCount.Add(1)
	m.fireTotalNs.Add(ns)
	if err != nil {
		m.fireFailed.Add(1)
	}

	for {
		old := m.fireMinNs.Load()
		if ns >= old || m.fireMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.fireMaxNs.Load()
		if ns <= old || m.fireMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInvocation records one handler invocation.
func (m *Metrics) RecordInvocation() {
	m.invocations.Add(1)
}

// RecordCommand records one interpreter command.
func (m *Metrics) RecordCommand(err error) {
	m.commands.Add(1)
	if err != nil {
		m.commandsFailed.Add(1)
	}
}

// RecordReload records one configuration reload.
func (m *Metrics) RecordReload(err error) {
	m.reloads.Add(1)
	if err != nil {
		m.reloadsFailed.Add(1)
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	fireCount := m.fireCount.Load()

	var avgFireNs int64
	if fireCount > 0 {
		avgFireNs = m.fireTotalNs.Load() / int64(fireCount)
	}

	minFireNs := m.fireMinNs.Load()
	if minFireNs == 1<<63-1 {
		minFireNs = 0
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		FireCount:      fireCount,
		FireFailed:     m.fireFailed.Load(),
		AvgFireNs:      avgFireNs,
		MinFireNs:      minFireNs,
		MaxFireNs:      m.fireMaxNs.Load(),
		Invocations:    m.invocations.Load(),
		Commands:       m.commands.Load(),
		CommandsFailed: m.commandsFailed.Load(),
		Reloads:        m.reloads.Load(),
		ReloadsFailed:  m.reloadsFailed.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration `json:"uptime" yaml:"uptime"`
	FireCount      uint64        `json:"fire_count" yaml:"fire_count"`
	FireFailed     uint64        `json:"fire_failed" yaml:"fire_failed"`
	AvgFireNs      int64         `json:"avg_fire_ns" yaml:"avg_fire_ns"`
	MinFireNs      int64         `json:"min_fire_ns" yaml:"min_fire_ns"`
	MaxFireNs      int64         `json:"max_fire_ns" yaml:"max_fire_ns"`
	Invocations    uint64        `json:"invocations" yaml:"invocations"`
	Commands       uint64        `json:"commands" yaml:"commands"`
	CommandsFailed uint64        `json:"commands_failed" yaml:"commands_failed"`
	Reloads        uint64        `json:"reloads" yaml:"reloads"`
	ReloadsFailed  uint64        `json:"reloads_failed" yaml:"reloads_failed"`
}

// FailureRate returns the percentage of fires that returned an error.
func (s MetricsSnapshot) FailureRate() float64 {
	if s.FireCount == 0 {
		return 0
	}
	return float64(s.FireFailed) / float64(s.FireCount) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
