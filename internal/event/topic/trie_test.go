package topic

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestTrie_ZeroValue(t *testing.T) {
	var trie Trie

	if trie.Contains("game") {
		t.Error("Contains should return false for zero-value trie")
	}
	if trie.Delete("game") {
		t.Error("Delete should return false for zero-value trie")
	}
	if got := trie.Match("game"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
	if !trie.Insert("game.*") {
		t.Error("Insert should succeed on zero-value trie")
	}
	if trie.Size() != 1 {
		t.Errorf("expected size 1, got %d", trie.Size())
	}
}

func TestTrie_Insert(t *testing.T) {
	trie := NewTrie()

	tests := []struct {
		pattern  Topic
		expected bool
	}{
		{"game.input", true},
		{"game.*", true},
		{"game.input", false},
		{"", false},
		{"game..input", false},
	}

	for _, tt := range tests {
		if got := trie.Insert(tt.pattern); got != tt.expected {
			t.Errorf("Insert(%q) = %v, want %v", tt.pattern, got, tt.expected)
		}
	}
	if trie.Size() != 2 {
		t.Errorf("expected size 2, got %d", trie.Size())
	}
}

func TestTrie_Match(t *testing.T) {
	trie := NewTrie()
	for _, p := range []Topic{"game.input.keydown", "game.*.keydown", "game.**", "**", "audio.*", "game.input"} {
		trie.Insert(p)
	}

	tests := []struct {
		path     Topic
		expected []Topic
	}{
		{"game.input.keydown", []Topic{"**", "game.**", "game.*.keydown", "game.input.keydown"}},
		{"game", []Topic{"**", "game.**"}},
		{"game.input", []Topic{"**", "game.**", "game.input"}},
		{"audio.music", []Topic{"**", "audio.*"}},
		{"audio", []Topic{"**"}},
	}

	for _, tt := range tests {
		got := trie.Match(tt.path)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestTrie_MatchAgreesWithTopicMatches(t *testing.T) {
	patterns := []Topic{"a.*", "a.**", "*.b", "**.c", "a.*.c", "a.b.c", "**"}
	paths := []Topic{"a", "a.b", "a.b.c", "x.b", "x.y.c", "a.x.y"}

	trie := NewTrie()
	for _, p := range patterns {
		trie.Insert(p)
	}

	for _, path := range paths {
		got := map[Topic]bool{}
		for _, m := range trie.Match(path) {
			got[m] = true
		}
		for _, p := range patterns {
			if got[p] != path.Matches(p) {
				t.Errorf("path %q pattern %q: trie says %v, Matches says %v", path, p, got[p], path.Matches(p))
			}
		}
	}
}

func TestTrie_Delete(t *testing.T) {
	trie := NewTrie()
	trie.Insert("game.input.keydown")
	trie.Insert("game.input")

	if !trie.Delete("game.input.keydown") {
		t.Fatal("expected Delete to succeed")
	}
	if trie.Contains("game.input.keydown") {
		t.Error("expected pattern to be gone")
	}
	if !trie.Contains("game.input") {
		t.Error("expected sibling prefix pattern to survive")
	}
	if trie.Delete("game.input.keydown") {
		t.Error("expected second Delete to fail")
	}
	if trie.Delete("game") {
		t.Error("expected Delete of a non-terminal prefix to fail")
	}
	if trie.Size() != 1 {
		t.Errorf("expected size 1, got %d", trie.Size())
	}
}

func TestTrie_AllAndClear(t *testing.T) {
	trie := NewTrie()
	trie.Insert("b")
	trie.Insert("a.*")

	if got := trie.All(); !reflect.DeepEqual(got, []Topic{"a.*", "b"}) {
		t.Errorf("unexpected All(): %v", got)
	}

	trie.Clear()
	if trie.Size() != 0 || len(trie.All()) != 0 {
		t.Error("expected empty trie after Clear")
	}
}

func TestTrie_Concurrent(t *testing.T) {
	trie := NewTrie()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := Topic(fmt.Sprintf("node.%d", i))
			trie.Insert(p)
			trie.Match(p)
		}(i)
	}
	wg.Wait()

	if trie.Size() != 10 {
		t.Errorf("expected size 10, got %d", trie.Size())
	}
}
