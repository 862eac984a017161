// Package script runs Lua handlers for event nodes.
//
// A Script is compiled once from inline source or a file and implements
// event.Handler. Each dispatch runs the chunk in a sandboxed gopher-lua
// state that only has the base, table, string and math libraries.
//
// # Globals
//
// The chunk sees these globals on every run:
//
//	caller   name of the node the dispatch originated from
//	args     array of the dispatch arguments (also passed as ...)
//	stop()   stop the dispatch from bubbling further
//	log(...) write the values to the structured log
//
// print is redirected to log. dofile, loadfile, load, loadstring and
// require are removed.
//
// # Errors
//
// A Lua error, including error("..."), fails the handler and aborts the
// dispatch. A run that outlives the script timeout fails with ErrTimeout.
//
//	s, err := script.Compile("announce", `log("started", args[1])`)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	node.ConnectWithPriority(event.PriorityStrong, s.Name(), s)
package script
