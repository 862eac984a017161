// Package logging configures zerolog for eventsignal.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu     sync.Mutex
	writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// ParseLevel converts a level name into a zerolog level. An empty name
// selects warn.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Configure sets the global level and output format. Output goes to
// stderr unless SetWriter was called first.
func Configure(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	w := writer
	switch strings.ToLower(format) {
	case "", FormatConsole:
		if _, ok := w.(zerolog.ConsoleWriter); !ok {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
	case FormatJSON:
		if cw, ok := w.(zerolog.ConsoleWriter); ok {
			w = cw.Out
		}
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	ctx := zerolog.New(w).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

// SetWriter replaces the destination used by Configure.
func SetWriter(w io.Writer) {
	mu.Lock()
	writer = w
	mu.Unlock()
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// NewLoggerWithWriter returns a JSON logger writing to w at level.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}
