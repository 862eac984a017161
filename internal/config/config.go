package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/dshills/eventsignal/internal/event"
)

// Config is the complete eventsignal configuration.
type Config struct {
	Log       LogConfig        `koanf:"log"`
	Loop      LoopConfig       `koanf:"loop"`
	Events    []EventConfig    `koanf:"events" validate:"dive"`
	Observers []ObserverConfig `koanf:"observers" validate:"dive"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=console json"`
}

// LoopConfig configures the deferred fire loop.
type LoopConfig struct {
	QueueSize   int `koanf:"queue_size" validate:"gte=1,lte=1048576"`
	TaskTimeout any `koanf:"task_timeout"`
}

// EventConfig declares one node of the event tree.
type EventConfig struct {
	Path          string             `koanf:"path" validate:"required"`
	Bubbling      bool               `koanf:"bubbling"`
	DispatchLimit int                `koanf:"dispatch_limit" validate:"gte=0"`
	Ghost         bool               `koanf:"ghost"`
	Disabled      bool               `koanf:"disabled"`
	Cooldown      any                `koanf:"cooldown"`
	Pause         any                `koanf:"pause"`
	Linked        []string           `koanf:"linked"`
	Connections   []ConnectionConfig `koanf:"connections" validate:"dive"`
}

// ConnectionConfig declares a scripted handler connection.
type ConnectionConfig struct {
	Name     string `koanf:"name"`
	Priority any    `koanf:"priority"`
	Script   string `koanf:"script" validate:"required_without=File"`
	File     string `koanf:"file"`
}

// ObserverConfig declares a scripted handler for every node matching a
// pattern.
type ObserverConfig struct {
	Pattern  string `koanf:"pattern" validate:"required"`
	Name     string `koanf:"name"`
	Priority any    `koanf:"priority"`
	Script   string `koanf:"script" validate:"required_without=File"`
	File     string `koanf:"file"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Loop: LoopConfig{
			QueueSize:   1024,
			TaskTimeout: "0s",
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for the confmap provider.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level":         def.Log.Level,
		"log.format":        def.Log.Format,
		"loop.queue_size":   def.Loop.QueueSize,
		"loop.task_timeout": def.Loop.TaskTimeout,
	}
}

// Timeout returns the per-task deadline, zero when unset.
func (c LoopConfig) Timeout() (time.Duration, error) {
	return ParseDuration(c.TaskTimeout)
}

// CooldownDuration returns the node cooldown, zero when unset.
func (e EventConfig) CooldownDuration() (time.Duration, error) {
	return ParseDuration(e.Cooldown)
}

// PauseThreshold returns the configured pause threshold. "all" or true
// pauses every priority; nil or false leaves the node listening.
func (e EventConfig) PauseThreshold() (event.Priority, error) {
	switch v := e.Pause.(type) {
	case nil:
		return event.PauseNone, nil
	case bool:
		if v {
			return event.PauseAll, nil
		}
		return event.PauseNone, nil
	case string:
		if v == "all" {
			return event.PauseAll, nil
		}
		if v == "" || v == "none" {
			return event.PauseNone, nil
		}
	}
	return event.ParsePriority(e.Pause)
}

// ConnectionPriority parses the connection's priority, defaulting to
// event.DefaultPriority.
func (c ConnectionConfig) ConnectionPriority() (event.Priority, error) {
	return parsePriority(c.Priority)
}

// ObserverPriority parses the observer's priority, defaulting to
// event.DefaultPriority.
func (o ObserverConfig) ObserverPriority() (event.Priority, error) {
	return parsePriority(o.Priority)
}

func parsePriority(v any) (event.Priority, error) {
	if v == nil || v == "" {
		return event.DefaultPriority, nil
	}
	return event.ParsePriority(v)
}

// ParseDuration accepts Go duration strings ("250ms", "2s") and plain
// numbers, which are taken as milliseconds. nil is zero.
func ParseDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return val, nil
	case string:
		if val == "" {
			return 0, nil
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", val, err)
		}
		return d, nil
	}

	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %v: %w", v, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
