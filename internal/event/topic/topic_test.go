package topic

import (
	"reflect"
	"testing"
)

func TestTopic_Segments(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected []string
	}{
		{"", nil},
		{"game", []string{"game"}},
		{"game.input.keydown", []string{"game", "input", "keydown"}},
	}

	for _, tt := range tests {
		got := tt.topic.Segments()
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Segments(%q) = %v, want %v", tt.topic, got, tt.expected)
		}
		if tt.topic.Depth() != len(tt.expected) {
			t.Errorf("Depth(%q) = %d, want %d", tt.topic, tt.topic.Depth(), len(tt.expected))
		}
	}
}

func TestTopic_ParentChildBase(t *testing.T) {
	tp := Topic("game.input.keydown")

	if got := tp.Parent(); got != "game.input" {
		t.Errorf("expected parent game.input, got %q", got)
	}
	if got := Topic("game").Parent(); got != "" {
		t.Errorf("expected empty parent, got %q", got)
	}
	if got := tp.Base(); got != "keydown" {
		t.Errorf("expected base keydown, got %q", got)
	}
	if got := Topic("game").Base(); got != "game" {
		t.Errorf("expected base game, got %q", got)
	}
	if got := Topic("").Child("game"); got != "game" {
		t.Errorf("expected game, got %q", got)
	}
	if got := Topic("game").Child("audio"); got != "game.audio" {
		t.Errorf("expected game.audio, got %q", got)
	}
}

func TestTopic_Ancestors(t *testing.T) {
	got := Topic("a.b.c").Ancestors()
	want := []Topic{"a", "a.b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := Topic("a").Ancestors(); got != nil {
		t.Errorf("expected no ancestors, got %v", got)
	}
}

func TestTopic_HasPrefix(t *testing.T) {
	tests := []struct {
		topic, prefix Topic
		expected      bool
	}{
		{"game.input", "game", true},
		{"game.input", "game.input", true},
		{"gamepad.input", "game", false},
		{"game", "game.input", false},
		{"game", "", true},
	}

	for _, tt := range tests {
		if got := tt.topic.HasPrefix(tt.prefix); got != tt.expected {
			t.Errorf("%q.HasPrefix(%q) = %v, want %v", tt.topic, tt.prefix, got, tt.expected)
		}
	}
}

func TestTopic_Validity(t *testing.T) {
	tests := []struct {
		topic Topic
		valid bool
		path  bool
	}{
		{"game", true, true},
		{"game.input", true, true},
		{"game.*", true, false},
		{"game.**", true, false},
		{"", false, false},
		{".game", false, false},
		{"game.", false, false},
		{"game..input", false, false},
		{"game.in*", false, false},
		{"game. input", false, false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.topic, got, tt.valid)
		}
		if got := tt.topic.IsPath(); got != tt.path {
			t.Errorf("IsPath(%q) = %v, want %v", tt.topic, got, tt.path)
		}
	}
}

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic, pattern Topic
		expected       bool
	}{
		{"game.input", "game.input", true},
		{"game.input", "game.*", true},
		{"game.input.keydown", "game.*", false},
		{"game.input.keydown", "game.**", true},
		{"game", "game.**", true},
		{"game.input.keydown", "*.input.*", true},
		{"game.input.keydown", "**.keydown", true},
		{"game.input.keyup", "**.keydown", false},
		{"anything.at.all", "**", true},
		{"game", "game.input", false},
	}

	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.expected {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.expected)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("game", "input", "keydown"); got != "game.input.keydown" {
		t.Errorf("expected game.input.keydown, got %q", got)
	}
}
