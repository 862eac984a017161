// Package app wires configuration, scripts and the event tree into a
// running application, and provides the command interpreter used by the
// run command.
package app

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/dshills/eventsignal/internal/config"
	"github.com/dshills/eventsignal/internal/config/watcher"
	"github.com/dshills/eventsignal/internal/event"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for posted fires.
const DefaultShutdownTimeout = 5 * time.Second

// Application owns the current runtime and replaces it on reload.
type Application struct {
	mu sync.RWMutex

	manager *config.Manager
	runtime *Runtime
	watcher *watcher.Watcher

	sinksMu sync.RWMutex
	sinks   []func(Invocation)

	reloadHooks []func(*Runtime, error)

	metrics *Metrics
	logger  zerolog.Logger

	running atomic.Bool
	opts    Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the tree definition. Empty builds an
	// empty tree from defaults, environment and flags.
	ConfigPath string

	// Flags are merged over the file and environment on every load.
	Flags *pflag.FlagSet

	// Environ overrides the process environment, mainly for tests.
	Environ func() []string

	// Watch reloads the tree when the config file changes.
	Watch bool

	// Debounce is the watcher quiet period. Zero uses the watcher default.
	Debounce time.Duration

	// ScriptTimeout bounds each script run.
	ScriptTimeout time.Duration

	// Logger is used by the application and everything it builds.
	Logger zerolog.Logger

	// Logging, when set, is called with the loaded log settings before the
	// tree is built and replaces Logger with its result.
	Logging func(config.LogConfig) (zerolog.Logger, error)
}

// New loads the configuration and builds the first runtime.
func New(opts Options) (*Application, error) {
	var mopts []config.ManagerOption
	if opts.Flags != nil {
		mopts = append(mopts, config.WithFlags(opts.Flags))
	}
	if opts.Environ != nil {
		mopts = append(mopts, config.WithEnviron(opts.Environ))
	}

	app := &Application{
		manager: config.NewManager(opts.ConfigPath, mopts...),
		metrics: NewMetrics(),
		opts:    opts,
	}

	cfg, err := app.manager.Load()
	if err != nil {
		return nil, NewOperationError("load", opts.ConfigPath, err)
	}

	if opts.Logging != nil {
		logger, err := opts.Logging(cfg.Log)
		if err != nil {
			return nil, NewOperationError("configure logging", opts.ConfigPath, err)
		}
		app.opts.Logger = logger
	}
	app.logger = app.opts.Logger.With().Str("component", "app").Logger()

	rt, err := app.build(cfg)
	if err != nil {
		return nil, NewOperationError("build", opts.ConfigPath, err)
	}
	app.runtime = rt

	return app, nil
}

func (app *Application) build(cfg config.Config) (*Runtime, error) {
	var base string
	if app.opts.ConfigPath != "" {
		base = filepath.Dir(app.opts.ConfigPath)
	}
	return Build(cfg, BuildOptions{
		BaseDir:       base,
		Logger:        app.opts.Logger,
		Sink:          app.emit,
		ScriptTimeout: app.opts.ScriptTimeout,
	})
}

// Config returns the configuration of the current runtime.
func (app *Application) Config() config.Config {
	return app.Runtime().Config
}

// Runtime returns the current runtime.
func (app *Application) Runtime() *Runtime {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.runtime
}

// Tree returns the current event tree.
func (app *Application) Tree() *event.Tree {
	return app.Runtime().Tree
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// OnInvoke registers fn to receive every handler invocation.
func (app *Application) OnInvoke(fn func(Invocation)) {
	app.sinksMu.Lock()
	defer app.sinksMu.Unlock()
	app.sinks = append(app.sinks, fn)
}

// OnReload registers fn to run after every reload attempt.
func (app *Application) OnReload(fn func(*Runtime, error)) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.reloadHooks = append(app.reloadHooks, fn)
}

func (app *Application) emit(inv Invocation) {
	app.metrics.RecordInvocation()

	app.sinksMu.RLock()
	sinks := app.sinks
	app.sinksMu.RUnlock()

	for _, fn := range sinks {
		fn(inv)
	}
}

// Start starts the deferred loop and, when requested, the config watcher.
func (app *Application) Start() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	if err := app.Runtime().Start(); err != nil {
		app.running.Store(false)
		return NewOperationError("start", "loop", err)
	}

	if app.opts.Watch && app.opts.ConfigPath != "" {
		wopts := []watcher.Option{watcher.WithLogger(app.logger)}
		if app.opts.Debounce > 0 {
			wopts = append(wopts, watcher.WithDebounce(app.opts.Debounce))
		}
		w, err := watcher.New(app.opts.ConfigPath, wopts...)
		if err != nil {
			app.stopRuntime()
			app.running.Store(false)
			return NewOperationError("watch", app.opts.ConfigPath, err)
		}
		w.OnChange(func(ev watcher.Event) {
			app.logger.Info().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("config changed")
			_ = app.Reload()
		})
		if err := w.Start(); err != nil {
			app.stopRuntime()
			app.running.Store(false)
			return NewOperationError("watch", app.opts.ConfigPath, err)
		}
		app.mu.Lock()
		app.watcher = w
		app.mu.Unlock()
	}

	app.logger.Debug().Str("config", app.opts.ConfigPath).Int("nodes", app.Tree().Len()).Msg("started")
	return nil
}

// IsRunning reports whether Start has been called without Shutdown.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Reload loads the configuration again and swaps in a new runtime. On
// failure the current runtime stays in place and the error is returned.
func (app *Application) Reload() error {
	err := app.reload()
	app.metrics.RecordReload(err)

	app.mu.RLock()
	hooks := app.reloadHooks
	rt := app.runtime
	app.mu.RUnlock()

	for _, fn := range hooks {
		fn(rt, err)
	}
	return err
}

func (app *Application) reload() error {
	cfg, err := app.manager.Load()
	if err != nil {
		app.logger.Warn().Err(err).Msg("reload failed, keeping current tree")
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}

	next, err := app.build(cfg)
	if err != nil {
		app.logger.Warn().Err(err).Msg("reload failed, keeping current tree")
		return NewOperationError("reload", app.opts.ConfigPath, err)
	}

	if app.running.Load() {
		if err := next.Start(); err != nil {
			next.Close()
			return NewOperationError("reload", app.opts.ConfigPath, err)
		}
	}

	app.mu.Lock()
	prev := app.runtime
	app.runtime = next
	app.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := prev.Stop(ctx); err != nil {
		app.logger.Warn().Err(err).Msg("previous loop did not drain")
	}
	prev.Close()

	app.logger.Info().Int("nodes", next.Tree.Len()).Msg("tree reloaded")
	return nil
}

// Shutdown stops the watcher, drains the loop and releases scripts.
func (app *Application) Shutdown(ctx context.Context) error {
	if !app.running.CompareAndSwap(true, false) {
		app.Runtime().Close()
		return nil
	}

	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()

	if w != nil {
		if err := w.Stop(); err != nil {
			app.logger.Warn().Err(err).Msg("stopping watcher")
		}
	}

	rt := app.Runtime()
	err := rt.Stop(ctx)
	rt.Close()
	if err != nil {
		return NewOperationError("shutdown", "loop", err)
	}
	return nil
}

func (app *Application) stopRuntime() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	_ = app.Runtime().Stop(ctx)
}

// Fire fires the node at path on the current tree and records metrics.
func (app *Application) Fire(path string, args ...any) error {
	return app.fire(path, false, args)
}

// FireAll fires the node at path and its subtree.
func (app *Application) FireAll(path string, args ...any) error {
	return app.fire(path, true, args)
}

func (app *Application) fire(path string, all bool, args []any) error {
	tree := app.Tree()
	timer := StartTimer()

	var err error
	if all {
		err = tree.FireAll(path, args...)
	} else {
		err = tree.Fire(path, args...)
	}

	app.metrics.RecordFire(timer.Elapsed(), err)
	return err
}

// Post queues a fire of the node at path on the current loop.
func (app *Application) Post(ctx context.Context, path string, args ...any) error {
	return app.Tree().Post(ctx, path, args...)
}
