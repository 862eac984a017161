package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/eventsignal/internal/config"
	"github.com/dshills/eventsignal/internal/event"
	"github.com/dshills/eventsignal/internal/event/dispatch"
	"github.com/dshills/eventsignal/internal/event/topic"
	"github.com/dshills/eventsignal/internal/script"
)

// Runtime is one event tree built from a configuration, together with
// the loop and scripts it owns.
type Runtime struct {
	Config config.Config
	Tree   *event.Tree
	Loop   *dispatch.Loop

	scripts []*script.Script
}

// BuildOptions configures Build.
type BuildOptions struct {
	// BaseDir resolves relative script file paths.
	BaseDir string

	// Logger is passed to the tree, its nodes, the loop and scripts.
	Logger zerolog.Logger

	// Sink receives every handler invocation. It may be nil.
	Sink func(Invocation)

	// ScriptTimeout bounds each script run. Zero uses script.DefaultTimeout.
	ScriptTimeout time.Duration
}

// Build creates the tree declared by cfg. Parents are created before
// their children, links are made once every node exists, and observers
// are attached last. Every script error is collected before Build fails.
func Build(cfg config.Config, opts BuildOptions) (*Runtime, error) {
	timeout, err := cfg.Loop.Timeout()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	loop := dispatch.NewLoop(
		dispatch.WithQueueSize(cfg.Loop.QueueSize),
		dispatch.WithTaskTimeout(timeout),
		dispatch.WithErrorHandler(func(name string, err error) {
			logger.Warn().Err(err).Str("path", name).Msg("posted fire failed")
		}),
		dispatch.WithPanicHandler(func(name string, v any, stack []byte) {
			logger.Error().
				Str("path", name).
				Interface("panic", v).
				Bytes("stack", stack).
				Msg("posted fire panicked")
		}),
	)

	rt := &Runtime{
		Config: cfg,
		Tree: event.NewTree(
			event.WithTreeLogger(logger),
			event.WithLoop(loop),
		),
		Loop: loop,
	}

	var errs ErrorList

	events := slices.Clone(cfg.Events)
	slices.SortStableFunc(events, func(a, b config.EventConfig) int {
		return topic.Topic(a.Path).Depth() - topic.Topic(b.Path).Depth()
	})

	for _, ec := range events {
		nodeOpts, err := nodeOptions(ec)
		if err != nil {
			errs.Add(&ComponentError{Component: "event", Target: ec.Path, Err: err})
			continue
		}
		node, err := rt.Tree.Node(ec.Path, nodeOpts...)
		if err != nil {
			errs.Add(&ComponentError{Component: "event", Target: ec.Path, Err: err})
			continue
		}

		for i, cc := range ec.Connections {
			name := cc.Name
			if name == "" {
				name = fmt.Sprintf("%s#%d", ec.Path, i)
			}
			errs.Add(rt.connect(node, ec.Path, name, cc, opts))
		}
	}

	for _, ec := range cfg.Events {
		node, ok := rt.Tree.Lookup(ec.Path)
		if !ok {
			continue
		}
		for _, path := range ec.Linked {
			target, ok := rt.Tree.Lookup(path)
			if !ok {
				errs.Add(&ComponentError{Component: "link", Target: ec.Path, Err: fmt.Errorf("%w: %q", event.ErrNodeNotFound, path)})
				continue
			}
			node.Link(target)
		}
	}

	for i, oc := range cfg.Observers {
		name := oc.Name
		if name == "" {
			name = fmt.Sprintf("observer#%d", i)
		}
		errs.Add(rt.observe(name, oc, opts))
	}

	if err := errs.AsError(); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// nodeOptions translates an event declaration into node options.
func nodeOptions(ec config.EventConfig) ([]event.Option, error) {
	cooldown, err := ec.CooldownDuration()
	if err != nil {
		return nil, err
	}
	threshold, err := ec.PauseThreshold()
	if err != nil {
		return nil, err
	}

	opts := []event.Option{
		event.WithBubbling(ec.Bubbling),
		event.WithDispatchLimit(ec.DispatchLimit),
		event.WithGhost(ec.Ghost),
		event.WithCooldown(cooldown),
		event.WithPauseThreshold(threshold),
	}
	if ec.Disabled {
		opts = append(opts, event.WithDisabled())
	}
	return opts, nil
}

func (rt *Runtime) connect(node *event.Node, path, name string, cc config.ConnectionConfig, opts BuildOptions) error {
	p, err := cc.ConnectionPriority()
	if err != nil {
		return &ComponentError{Component: "connection", Target: name, Err: err}
	}
	s, err := rt.compile(name, cc.Script, cc.File, opts)
	if err != nil {
		return &ComponentError{Component: "connection", Target: name, Err: err}
	}
	h := traced(path, name, p, s, opts.Sink)
	if _, err := node.ConnectWithPriority(p, name, h); err != nil {
		return &ComponentError{Component: "connection", Target: name, Err: err}
	}
	return nil
}

func (rt *Runtime) observe(name string, oc config.ObserverConfig, opts BuildOptions) error {
	p, err := oc.ObserverPriority()
	if err != nil {
		return &ComponentError{Component: "observer", Target: oc.Pattern, Err: err}
	}
	s, err := rt.compile(name, oc.Script, oc.File, opts)
	if err != nil {
		return &ComponentError{Component: "observer", Target: oc.Pattern, Err: err}
	}
	h := traced(oc.Pattern, name, p, s, opts.Sink)
	if _, err := rt.Tree.Observe(oc.Pattern, p, name, h); err != nil {
		return &ComponentError{Component: "observer", Target: oc.Pattern, Err: err}
	}
	return nil
}

// compile loads inline source, or the file when no source is given.
func (rt *Runtime) compile(name, source, file string, opts BuildOptions) (*script.Script, error) {
	sopts := []script.Option{script.WithLogger(opts.Logger)}
	if opts.ScriptTimeout > 0 {
		sopts = append(sopts, script.WithTimeout(opts.ScriptTimeout))
	}

	var (
		s   *script.Script
		err error
	)
	if source != "" {
		s, err = script.Compile(name, source, sopts...)
	} else {
		s, err = script.Load(opts.BaseDir, file, sopts...)
	}
	if err != nil {
		return nil, err
	}
	rt.scripts = append(rt.scripts, s)
	return s, nil
}

// Start starts the runtime's loop.
func (rt *Runtime) Start() error {
	return rt.Loop.Start()
}

// Stop drains the loop, waiting at most until ctx is done.
func (rt *Runtime) Stop(ctx context.Context) error {
	if !rt.Loop.IsRunning() {
		return nil
	}
	return rt.Loop.Stop(ctx)
}

// Close releases every script state. The tree must not be fired afterwards.
func (rt *Runtime) Close() {
	for _, s := range rt.scripts {
		s.Close()
	}
	rt.scripts = nil
}

// Scripts returns the number of compiled scripts.
func (rt *Runtime) Scripts() int {
	return len(rt.scripts)
}
