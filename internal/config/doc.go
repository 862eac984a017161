// Package config loads eventsignal settings and event tree definitions.
//
// Sources are merged in increasing order of precedence:
//
//   - built-in defaults
//   - a YAML (.yaml, .yml) or TOML (.toml) file
//   - EVENTSIGNAL_* environment variables
//   - command-line flags
//
// Environment variables map to keys by dropping the prefix, lowercasing,
// and turning the first underscore into a dot:
//
//	EVENTSIGNAL_LOG_LEVEL        -> log.level
//	EVENTSIGNAL_LOOP_QUEUE_SIZE  -> loop.queue_size
//
// # Tree Definitions
//
// The events list declares nodes by path along with their settings and
// scripted connections:
//
//	events:
//	  - path: game.input.keydown
//	    bubbling: true
//	    dispatch_limit: 10
//	    cooldown: 250ms
//	    connections:
//	      - name: move
//	        priority: strong
//	        script: |
//	          log("moving " .. args[1])
//
//	observers:
//	  - pattern: game.**
//	    priority: weak
//	    script: log(event .. " fired")
//
// Priorities accept integers or the names weak, strong and factory.
package config
