package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/eventsignal/internal/event"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 5 * time.Second

// Script is a compiled Lua chunk bound to its own sandboxed state.
//
// gopher-lua states are not goroutine-safe, so runs are serialized.
type Script struct {
	mu sync.Mutex

	name    string
	source  string
	timeout time.Duration
	logger  zerolog.Logger

	L      *lua.LState
	fn     *lua.LFunction
	caller *event.Node
	closed bool
}

// Option configures a Script.
type Option func(*Script)

// WithTimeout sets the per-run deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Script) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used by log() and print().
func WithLogger(l zerolog.Logger) Option {
	return func(s *Script) {
		s.logger = l
	}
}

// Compile parses and compiles source. name labels log lines and errors.
func Compile(name, source string, opts ...Option) (*Script, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, name)
	}

	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("error parsing script %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("error compiling script %s: %w", name, err)
	}

	s := &Script{
		name:    name,
		source:  source,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = newSandbox()
	s.fn = s.L.NewFunctionFromProto(proto)
	s.installGlobals()

	return s, nil
}

// Load compiles the script file at path. Relative paths are resolved
// against dir when dir is not empty.
func Load(dir, path string, opts ...Option) (*Script, error) {
	if dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script %s: %w", path, err)
	}
	return Compile(path, string(content), opts...)
}

// Name returns the script label.
func (s *Script) Name() string {
	return s.name
}

// Source returns the script source.
func (s *Script) Source() string {
	return s.source
}

// installGlobals registers the functions that live for the whole state.
func (s *Script) installGlobals() {
	callerName := func() string {
		if s.caller == nil {
			return ""
		}
		return s.caller.Name()
	}

	logFn := s.L.NewFunction(logFunction(&s.logger, s.name, callerName))
	s.L.SetGlobal("log", logFn)
	s.L.SetGlobal("print", logFn)

	s.L.SetGlobal("stop", s.L.NewFunction(func(L *lua.LState) int {
		if s.caller != nil {
			s.caller.StopPropagating()
		}
		return 0
	}))
}

// Handle implements event.Handler.
func (s *Script) Handle(caller *event.Node, args ...any) error {
	_, err := s.Call(caller, args...)
	return err
}

// Call runs the chunk for one dispatch and returns its results.
func (s *Script) Call(caller *event.Node, args ...any) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrScriptClosed
	}

	s.caller = caller
	defer func() { s.caller = nil }()

	name := ""
	if caller != nil {
		name = caller.Name()
	}
	s.L.SetGlobal("caller", lua.LString(name))

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = toLua(s.L, a)
	}
	tbl := s.L.CreateTable(len(largs), 0)
	for _, a := range largs {
		tbl.Append(a)
	}
	s.L.SetGlobal("args", tbl)

	var cancel context.CancelFunc
	if s.timeout > 0 {
		var ctx context.Context
		ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
		s.L.SetContext(ctx)
	}

	top := s.L.GetTop()
	err := s.L.CallByParam(lua.P{
		Fn:      s.fn,
		NRet:    lua.MultRet,
		Protect: true,
	}, largs...)

	var timedOut bool
	if cancel != nil {
		timedOut = errors.Is(s.L.Context().Err(), context.DeadlineExceeded)
		s.L.RemoveContext()
		cancel()
	}

	if err != nil {
		s.L.SetTop(top)
		if timedOut {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, s.name, s.timeout)
		}
		return nil, fmt.Errorf("script %s: %w", s.name, err)
	}

	n := s.L.GetTop() - top
	results := make([]any, 0, n)
	for i := top + 1; i <= top+n; i++ {
		results = append(results, toGo(s.L.Get(i)))
	}
	s.L.SetTop(top)

	return results, nil
}

// Close releases the Lua state. Further runs return ErrScriptClosed.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
