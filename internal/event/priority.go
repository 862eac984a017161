package event

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Priority determines handler execution order.
// Higher values execute first.
type Priority int

const (
	// PriorityWeak is the default priority for ordinary listeners.
	PriorityWeak Priority = 0

	// PriorityStrong runs before weak listeners.
	PriorityStrong Priority = 1

	// PriorityFactory runs before every named level; reserved for handlers
	// that set up state other listeners depend on.
	PriorityFactory Priority = 2

	// DefaultPriority is used by Connect.
	DefaultPriority = PriorityWeak
)

// Pause threshold sentinels. Neither may be used as a connection priority.
const (
	// PauseNone means no priority is paused.
	PauseNone Priority = math.MinInt

	// PauseAll pauses every priority.
	PauseAll Priority = math.MaxInt
)

var priorityNames = map[string]Priority{
	"weak":    PriorityWeak,
	"strong":  PriorityStrong,
	"factory": PriorityFactory,
}

// String returns the level name for named priorities and the number otherwise.
func (p Priority) String() string {
	switch p {
	case PriorityWeak:
		return "weak"
	case PriorityStrong:
		return "strong"
	case PriorityFactory:
		return "factory"
	case PauseNone:
		return "none"
	case PauseAll:
		return "all"
	default:
		return fmt.Sprintf("%d", int(p))
	}
}

// IsSentinel reports whether p is one of the pause sentinels.
func (p Priority) IsSentinel() bool {
	return p == PauseNone || p == PauseAll
}

// ParsePriority converts a loosely typed value into a Priority.
// Accepted inputs are integers, numeric strings and the named levels
// "weak", "strong" and "factory" (case-insensitive).
func ParsePriority(v any) (Priority, error) {
	switch val := v.(type) {
	case Priority:
		if val.IsSentinel() {
			return 0, fmt.Errorf("%w: %d is reserved", ErrInvalidPriority, int(val))
		}
		return val, nil
	case string:
		name := strings.ToLower(strings.TrimSpace(val))
		if p, ok := priorityNames[name]; ok {
			return p, nil
		}
	case float32, float64:
		f := cast.ToFloat64(val)
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidPriority, v)
		}
	case bool, nil:
		return 0, fmt.Errorf("%w: %v", ErrInvalidPriority, v)
	}

	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPriority, v)
	}
	p := Priority(n)
	if p.IsSentinel() {
		return 0, fmt.Errorf("%w: %d is reserved", ErrInvalidPriority, n)
	}
	return p, nil
}

// MustParsePriority is like ParsePriority but panics on error.
func MustParsePriority(v any) Priority {
	p, err := ParsePriority(v)
	if err != nil {
		panic(err)
	}
	return p
}
