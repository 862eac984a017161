// Package dispatch runs deferred work for event trees.
//
// Node dispatch is synchronous: Fire runs every handler on the caller's
// goroutine before returning. When a caller must not block, or must not
// re-enter a tree from inside a handler, it posts the fire to a Loop
// instead. A Loop owns one worker goroutine and a bounded FIFO queue, so
// posted tasks run one at a time in the order they were posted.
//
// # Panic Recovery
//
// Posted tasks have no caller to return to, so the Executor recovers their
// panics and reports them through a PanicHandler. Errors returned by tasks
// go to an ErrorHandler.
//
// # Usage
//
//	loop := dispatch.NewLoop(
//	    dispatch.WithQueueSize(256),
//	    dispatch.WithErrorHandler(func(name string, err error) {
//	        logger.Warn().Err(err).Str("task", name).Msg("deferred fire failed")
//	    }),
//	)
//	if err := loop.Start(); err != nil {
//	    return err
//	}
//	defer loop.Stop(context.Background())
//
//	err := loop.Post(ctx, "game.tick", func(ctx context.Context) error {
//	    return node.Fire(frame)
//	})
package dispatch
