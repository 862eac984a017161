package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/dshills/eventsignal/internal/event"
	"github.com/dshills/eventsignal/internal/event/dispatch"
	"github.com/dshills/eventsignal/internal/event/topic"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// TreeReport is a point-in-time view of a tree.
type TreeReport struct {
	Nodes     []NodeReport     `json:"nodes" yaml:"nodes"`
	Observers []string         `json:"observers,omitempty" yaml:"observers,omitempty"`
	Loop      *LoopReport      `json:"loop,omitempty" yaml:"loop,omitempty"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// NodeReport describes one node.
type NodeReport struct {
	Path          string             `json:"path" yaml:"path"`
	Depth         int                `json:"depth" yaml:"depth"`
	State         string             `json:"state" yaml:"state"`
	Reason        string             `json:"reason" yaml:"reason"`
	Bubbling      bool               `json:"bubbling" yaml:"bubbling"`
	Ghost         bool               `json:"ghost" yaml:"ghost"`
	Pause         string             `json:"pause" yaml:"pause"`
	DispatchLimit int                `json:"dispatch_limit,omitempty" yaml:"dispatch_limit,omitempty"`
	Cooldown      string             `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	Linked        []string           `json:"linked,omitempty" yaml:"linked,omitempty"`
	Connections   []ConnectionReport `json:"connections,omitempty" yaml:"connections,omitempty"`
	Waiters       int                `json:"waiters,omitempty" yaml:"waiters,omitempty"`
	Stats         StatsReport        `json:"stats" yaml:"stats"`
}

// ConnectionReport describes one connection, in dispatch order.
type ConnectionReport struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Priority string `json:"priority" yaml:"priority"`
}

// StatsReport mirrors event.Stats.
type StatsReport struct {
	Dispatched          int    `json:"dispatched" yaml:"dispatched"`
	RejectedWhilePaused int    `json:"rejected_while_paused" yaml:"rejected_while_paused"`
	LastDispatched      string `json:"last_dispatched,omitempty" yaml:"last_dispatched,omitempty"`
}

// LoopReport mirrors dispatch.Stats.
type LoopReport struct {
	Running     bool   `json:"running" yaml:"running"`
	Posted      uint64 `json:"posted" yaml:"posted"`
	Processed   uint64 `json:"processed" yaml:"processed"`
	Failed      uint64 `json:"failed" yaml:"failed"`
	Dropped     uint64 `json:"dropped" yaml:"dropped"`
	QueueDepth  int    `json:"queue_depth" yaml:"queue_depth"`
	AvgDuration string `json:"avg_duration" yaml:"avg_duration"`
}

// ReportNode describes a single node.
func ReportNode(path string, n *event.Node) NodeReport {
	settings := n.Settings()
	stats := n.Stats()

	r := NodeReport{
		Path:          path,
		Depth:         topic.Topic(path).Depth(),
		State:         n.State().String(),
		Reason:        n.Eligibility().String(),
		Bubbling:      settings.Bubbling,
		Ghost:         settings.Ghost,
		Pause:         n.PauseThreshold().String(),
		DispatchLimit: settings.DispatchLimit,
		Waiters:       n.PendingWaiters(),
		Stats: StatsReport{
			Dispatched:          stats.DispatchCount,
			RejectedWhilePaused: stats.RejectedWhilePaused,
		},
	}
	if settings.Cooldown > 0 {
		r.Cooldown = settings.Cooldown.String()
	}
	if !stats.LastDispatched.IsZero() {
		r.Stats.LastDispatched = stats.LastDispatched.Format(time.RFC3339Nano)
	}
	for _, l := range settings.Linked {
		r.Linked = append(r.Linked, l.Name())
	}
	for _, c := range n.Connections() {
		r.Connections = append(r.Connections, ConnectionReport{
			ID:       c.ID(),
			Name:     c.Name(),
			Priority: c.Priority().String(),
		})
	}
	return r
}

// BuildReport walks the tree in creation order.
func BuildReport(t *event.Tree) TreeReport {
	var r TreeReport
	t.Walk(func(path topic.Topic, n *event.Node) bool {
		r.Nodes = append(r.Nodes, ReportNode(path.String(), n))
		return true
	})
	for _, p := range t.Patterns() {
		r.Observers = append(r.Observers, p.String())
	}
	return r
}

// WithLoop adds the loop's counters to the report.
func (r TreeReport) WithLoop(l *dispatch.Loop) TreeReport {
	s := l.Stats()
	r.Loop = &LoopReport{
		Running:     l.IsRunning(),
		Posted:      s.Posted,
		Processed:   s.Processed,
		Failed:      s.Failed,
		Dropped:     s.Dropped,
		QueueDepth:  s.QueueDepth,
		AvgDuration: s.AvgDuration.String(),
	}
	return r
}

// WithMetrics adds application metrics to the report.
func (r TreeReport) WithMetrics(m MetricsSnapshot) TreeReport {
	r.Metrics = &m
	return r
}

// Write renders the report in format.
func (r TreeReport) Write(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		_, err := io.WriteString(w, r.Text())
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("%w: format %q (want text, yaml or json)", ErrUsage, format)
	}
}

var (
	pathStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	connStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// styleForReason returns the style for an eligibility reason.
func styleForReason(reason string) lipgloss.Style {
	switch reason {
	case event.ReasonAllListening.String(), event.ReasonGhost.String():
		return okStyle
	case event.ReasonPartiallyListening.String(), event.ReasonCoolingDown.String():
		return pausedStyle
	default:
		return blockedStyle
	}
}

// Text renders the report as an indented tree.
func (r TreeReport) Text() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("event tree (%d nodes)", len(r.Nodes))))
	b.WriteString("\n")

	for _, n := range r.Nodes {
		indent := strings.Repeat("  ", n.Depth-1)
		fmt.Fprintf(&b, "%s%s %s %s\n",
			indent,
			pathStyle.Render(n.Path),
			labelStyle.Render(n.State),
			styleForReason(n.Reason).Render(n.Reason),
		)

		var flags []string
		if n.Bubbling {
			flags = append(flags, "bubbling")
		}
		if n.Ghost {
			flags = append(flags, "ghost")
		}
		if n.Pause != event.PauseNone.String() {
			flags = append(flags, "pause="+n.Pause)
		}
		if n.DispatchLimit > 0 {
			flags = append(flags, fmt.Sprintf("limit=%d", n.DispatchLimit))
		}
		if n.Cooldown != "" {
			flags = append(flags, "cooldown="+n.Cooldown)
		}
		if len(n.Linked) > 0 {
			flags = append(flags, "linked="+strings.Join(n.Linked, ","))
		}
		flags = append(flags, fmt.Sprintf("dispatched=%d", n.Stats.Dispatched))
		fmt.Fprintf(&b, "%s  %s\n", indent, labelStyle.Render(strings.Join(flags, " ")))

		for _, c := range n.Connections {
			fmt.Fprintf(&b, "%s  %s %s\n", indent, connStyle.Render("-> "+c.Name), labelStyle.Render("["+c.Priority+"]"))
		}
	}

	if len(r.Observers) > 0 {
		fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("observers"), strings.Join(r.Observers, ", "))
	}

	if r.Loop != nil {
		fmt.Fprintf(&b, "%s running=%t posted=%d processed=%d failed=%d dropped=%d queued=%d\n",
			titleStyle.Render("loop"),
			r.Loop.Running, r.Loop.Posted, r.Loop.Processed, r.Loop.Failed, r.Loop.Dropped, r.Loop.QueueDepth)
	}

	if r.Metrics != nil {
		fmt.Fprintf(&b, "%s fires=%d failed=%d invocations=%d reloads=%d\n",
			titleStyle.Render("metrics"),
			r.Metrics.FireCount, r.Metrics.FireFailed, r.Metrics.Invocations, r.Metrics.Reloads)
	}

	return b.String()
}
