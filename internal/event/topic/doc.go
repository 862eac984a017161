// Package topic provides dot-separated paths for event tree nodes and
// wildcard patterns over them.
//
// # Path Format
//
// A path names a node by its position in the tree, parent segments first:
//
//	game
//	game.input
//	game.input.keydown
//
// # Wildcards
//
// Patterns may use two wildcards:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	game.*            matches game.input, game.audio (not game.input.keydown)
//	game.**           matches game, game.input, game.input.keydown
//	*.keydown         matches input.keydown
//	**                matches everything
//
// # Pattern Trie
//
// Trie stores patterns and answers which of them match a concrete path in
// time proportional to the path length for wildcard-light pattern sets.
//
//	t := topic.NewTrie()
//	t.Insert(topic.Topic("game.**"))
//	t.Insert(topic.Topic("game.input.*"))
//
//	matches := t.Match(topic.Topic("game.input.keydown"))
//	// matches contains both patterns
package topic
