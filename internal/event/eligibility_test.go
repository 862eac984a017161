package event

import (
	"testing"
	"time"
)

func TestEligibility_Order(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *Node)
		want  Reason
	}{
		{
			name:  "no connections",
			setup: func(n *Node) {},
			want:  ReasonNoConnections,
		},
		{
			name: "disabled wins over ghost",
			setup: func(n *Node) {
				n.SetGhost()
				n.Disable()
			},
			want: ReasonDisabled,
		},
		{
			name:  "ghost accepts without connections",
			setup: func(n *Node) { n.SetGhost() },
			want:  ReasonGhost,
		},
		{
			name: "fully paused",
			setup: func(n *Node) {
				n.Connect("", HandlerFunc(noop))
				n.Pause()
			},
			want: ReasonFullyPaused,
		},
		{
			name: "threshold at highest priority",
			setup: func(n *Node) {
				n.ConnectWithPriority(4, "", HandlerFunc(noop))
				n.PauseWithPriority(4)
			},
			want: ReasonFullyPaused,
		},
		{
			name: "partially listening",
			setup: func(n *Node) {
				n.ConnectWithPriority(4, "", HandlerFunc(noop))
				n.ConnectWithPriority(1, "", HandlerFunc(noop))
				n.PauseWithPriority(1)
			},
			want: ReasonPartiallyListening,
		},
		{
			name: "all listening",
			setup: func(n *Node) {
				n.Connect("", HandlerFunc(noop))
			},
			want: ReasonAllListening,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(nil)
			tt.setup(n)

			if got := n.Eligibility(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got := n.ValidateNextDispatch(nil); got != tt.want.Accepted() {
				t.Errorf("expected ValidateNextDispatch %v, got %v", tt.want.Accepted(), got)
			}
		})
	}
}

func TestValidateNextDispatch_Observer(t *testing.T) {
	n := New(nil)
	n.Connect("", HandlerFunc(noop))

	var seen []Reason
	obs := func(node *Node, r Reason) {
		if node != n {
			t.Error("expected observer to receive the node")
		}
		seen = append(seen, r)
	}

	n.ValidateNextDispatch(obs)
	n.Disable()
	n.ValidateNextDispatch(obs)

	if len(seen) != 2 || seen[0] != ReasonAllListening || seen[1] != ReasonDisabled {
		t.Errorf("unexpected reasons: %v", seen)
	}
	if n.Stats().DispatchCount != 0 {
		t.Error("expected validation not to count a dispatch")
	}
}

func TestEligibility_LimitReached(t *testing.T) {
	n := New(nil, WithDispatchLimit(2))
	n.Connect("", HandlerFunc(noop))

	n.Fire()
	if n.Eligibility() != ReasonAllListening {
		t.Fatalf("expected allListening after 1 dispatch, got %v", n.Eligibility())
	}
	n.Fire()
	if n.Eligibility() != ReasonLimitReached {
		t.Errorf("expected limitReached after 2 dispatches, got %v", n.Eligibility())
	}

	n.ResetStats()
	if n.Eligibility() != ReasonAllListening {
		t.Errorf("expected ResetStats to lift the limit, got %v", n.Eligibility())
	}
}

func TestEligibility_Cooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	n := New(nil, WithCooldown(time.Second), WithClock(clock))
	n.Connect("", HandlerFunc(noop))

	n.Fire()
	if n.Eligibility() != ReasonCoolingDown {
		t.Errorf("expected coolingDown, got %v", n.Eligibility())
	}

	now = now.Add(999 * time.Millisecond)
	if n.Eligibility() != ReasonCoolingDown {
		t.Errorf("expected coolingDown before the interval, got %v", n.Eligibility())
	}

	now = now.Add(time.Millisecond)
	if n.Eligibility() != ReasonAllListening {
		t.Errorf("expected allListening after the interval, got %v", n.Eligibility())
	}
}

func TestState(t *testing.T) {
	n := New(nil)
	n.ConnectWithPriority(5, "", HandlerFunc(noop))
	n.ConnectWithPriority(3, "", HandlerFunc(noop))

	if n.State() != StateListening {
		t.Errorf("expected listening, got %v", n.State())
	}

	n.PauseWithPriority(3)
	if n.State() != StatePartiallyPaused {
		t.Errorf("expected partiallyPaused, got %v", n.State())
	}

	n.PauseWithPriority(5)
	if n.State() != StateFullyPaused {
		t.Errorf("expected fullyPaused, got %v", n.State())
	}

	n.Disable()
	if n.State() != StateDisabled {
		t.Errorf("expected disabled, got %v", n.State())
	}
}

func TestReason_String(t *testing.T) {
	want := map[Reason]string{
		ReasonDisabled:           "isDisabled",
		ReasonGhost:              "isGhost",
		ReasonNoConnections:      "noConnections",
		ReasonFullyPaused:        "fullyPaused",
		ReasonLimitReached:       "limitReached",
		ReasonCoolingDown:        "coolingDown",
		ReasonAllListening:       "allListening",
		ReasonPartiallyListening: "partiallyListening",
	}
	for r, s := range want {
		if r.String() != s {
			t.Errorf("expected %q, got %q", s, r.String())
		}
	}
}
