package event

import (
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler receives a dispatch. caller is the node the dispatch originated
// from, which differs from the handler's own node when the dispatch bubbled
// up from a child.
type Handler interface {
	Handle(caller *Node, args ...any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(caller *Node, args ...any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(caller *Node, args ...any) error {
	return f(caller, args...)
}

// Listener adapts a handler that cannot fail.
func Listener(fn func(caller *Node, args ...any)) HandlerFunc {
	return func(caller *Node, args ...any) error {
		fn(caller, args...)
		return nil
	}
}

// Connection is one handler registration on a node. It is returned by the
// connect methods and can be passed back in a Filter for exact removal.
type Connection struct {
	id       string
	name     string
	handler  Handler
	priority Priority
	active   atomic.Bool
}

func newConnection(p Priority, name string, h Handler) *Connection {
	c := &Connection{
		id:       uuid.NewString(),
		name:     name,
		handler:  h,
		priority: p,
	}
	c.active.Store(true)
	return c
}

// ID returns the unique connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Name returns the optional connection label.
func (c *Connection) Name() string {
	return c.name
}

// Priority returns the priority the connection was registered under.
func (c *Connection) Priority() Priority {
	return c.priority
}

// Handler returns the connection's handler.
func (c *Connection) Handler() Handler {
	return c.handler
}

// IsActive reports whether the connection is still registered.
func (c *Connection) IsActive() bool {
	return c.active.Load()
}

// Filter selects connections for removal.
//
// A connection matches when it is Connection, or when Name is empty or equal
// to the connection's name and Handler is nil or the same handler. The zero
// Filter matches every connection.
//
// Handler identity is exact only for pointer and comparable handlers.
// Function handlers, including HandlerFunc values and method values, never
// match a Handler filter; remove them by Connection or Name.
type Filter struct {
	Connection *Connection
	Name       string
	Handler    Handler
}

// ByName returns a filter matching connections with the given name.
func ByName(name string) Filter {
	return Filter{Name: name}
}

// ByHandler returns a filter matching connections registered with h. h
// must be a pointer or comparable value; a function matches nothing.
func ByHandler(h Handler) Filter {
	return Filter{Handler: h}
}

// ByConnection returns a filter matching exactly one connection.
func ByConnection(c *Connection) Filter {
	return Filter{Connection: c}
}

// matches applies the filter rule to c.
func (f Filter) matches(c *Connection) bool {
	if f.Connection != nil {
		return f.Connection == c
	}
	if f.Name != "" && f.Name != c.name {
		return false
	}
	if f.Handler != nil && !sameHandler(f.Handler, c.handler) {
		return false
	}
	return true
}

// sameHandler compares handlers by identity. Functions have no identity in
// Go: closures from one literal and method values of one method share a
// code pointer, so function handlers are never the same.
func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Type().Comparable() {
		return a == b
	}
	return false
}
