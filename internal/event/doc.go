// Package event provides priority-aware event nodes arranged in a tree.
//
// A Node holds handler connections grouped by priority. Firing a node runs
// its handlers synchronously on the caller's goroutine, resolves any
// pending waiters, fires linked nodes, and finally bubbles the dispatch to
// the parent node when bubbling is enabled.
//
// # Architecture
//
//	              ┌──────────────────────────────────────┐
//	              │                 Tree                  │
//	              │  - path addressed nodes               │
//	              │  - pattern observers (trie)           │
//	              │  - deferred fires (dispatch.Loop)     │
//	              └──────────────────────────────────────┘
//	                                 │
//	          ┌──────────────────────┼──────────────────────┐
//	          ▼                      ▼                      ▼
//	┌──────────────────┐  ┌──────────────────┐  ┌──────────────────┐
//	│     Registry     │  │   Eligibility    │  │    Dispatch      │
//	│  - priority      │  │  - enable/pause  │  │  - handlers      │
//	│    groups        │  │  - limit         │  │  - waiters       │
//	│  - filters       │  │  - cooldown      │  │  - links/bubble  │
//	└──────────────────┘  └──────────────────┘  └──────────────────┘
//
// # Priority Ordering
//
// Handlers run from the highest priority down. Within one priority they run
// in registration order. Three levels are named:
//
//   - PriorityFactory (2): setup that other handlers depend on
//   - PriorityStrong (1)
//   - PriorityWeak (0): the default
//
// Any other integer is a valid priority except the two pause sentinels,
// PauseNone and PauseAll.
//
// # Pausing
//
// A node has a pause threshold. Groups at or below the threshold are
// skipped; groups above it still run. A node whose threshold reaches its
// highest priority is fully paused and rejects dispatches. Disable rejects
// every dispatch regardless of the threshold.
//
// # Eligibility
//
// Before each dispatch the node evaluates, in order: disabled, ghost, no
// connections, fully paused, limit reached, cooling down. The first check
// that applies decides. A rejected dispatch is not an error; Fire returns
// nil and the Reason goes to the node's Observer.
//
// # Propagation
//
// Bubbling re-dispatches the parent with the original caller, so parent
// handlers can tell which child fired. A handler may call StopPropagating
// on any node of the running chain to keep the dispatch from climbing
// further. Linked nodes always fire in a chain of their own.
//
// FireAll fires a node and its whole subtree without bubbling, then bubbles
// once from the node it was called on.
//
// # Basic Usage
//
//	tree := event.NewTree()
//	keydown := tree.MustNode("game.input.keydown", event.WithBubbling(true))
//
//	keydown.ConnectFunc("move", func(caller *event.Node, args ...any) error {
//	    return player.Move(args[0].(string))
//	})
//
//	_, err := tree.Observe("game.**", event.PriorityWeak, "trace",
//	    event.Listener(func(caller *event.Node, args ...any) {
//	        log.Printf("%s fired", caller.Name())
//	    }))
//
//	if err := keydown.Fire("left"); err != nil {
//	    return err
//	}
//
// # Waiting
//
// Wait returns a Waiter resolved by the node's next dispatch:
//
//	w := node.Wait(2 * time.Second)
//	args, err := w.Await(ctx)
//	if errors.Is(err, event.ErrEventTimeout) {
//	    // no dispatch within two seconds
//	}
//
// # Thread Safety
//
// Every Node and Tree method is safe for concurrent use. Handlers run
// without any node lock held, so they may connect, disconnect, pause or
// fire nodes, including their own.
package event
