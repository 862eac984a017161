// Package watcher provides file watching for configuration live reload.
//
// The watcher monitors a configuration file for changes and triggers
// reload callbacks when modifications are detected. It watches the
// file's directory so that editors which replace the file on save are
// still seen.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrWatcherClosed is returned when starting a watcher that was stopped.
var ErrWatcherClosed = errors.New("watcher closed")

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event occurred.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors one file for changes.
type Watcher struct {
	mu sync.Mutex

	path     string
	handlers []Handler
	debounce time.Duration
	logger   zerolog.Logger

	fsw     *fsnotify.Watcher
	timer   *time.Timer
	pending Event

	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that collapses rapid changes into
// one event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher for the file at path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		debounce: 100 * time.Millisecond,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching. Calling Start on a running watcher does nothing.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true
	w.wg.Add(1)
	go w.loop(fsw, w.done)

	return nil
}

// Stop ends watching. Pending debounced events are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.closed = true
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.closed = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	fsw := w.fsw
	w.mu.Unlock()

	w.wg.Wait()
	return fsw.Close()
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done <-chan struct{}) {
	defer w.wg.Done()

	for {
		select {
		case <-done:
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			op, ok := convertOp(ev.Op)
			if !ok {
				continue
			}
			w.schedule(Event{Path: w.path, Op: op, Time: time.Now()})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Str("path", w.path).Msg("watch error")
		}
	}
}

// schedule records ev and (re)starts the debounce timer.
func (w *Watcher) schedule(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.pending = ev
	if w.debounce == 0 {
		go w.emit()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.emit)
}

func (w *Watcher) emit() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	ev := w.pending
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()

	w.logger.Debug().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("config changed")
	for _, h := range handlers {
		h(ev)
	}
}

// convertOp maps an fsnotify operation to an Operation. Chmod is ignored.
func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	default:
		return 0, false
	}
}
