package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeYAML = `
log:
  level: info
loop:
  queue_size: 64
  task_timeout: 2s
events:
  - path: game
  - path: game.start
    bubbling: true
    dispatch_limit: 3
    cooldown: 250ms
    pause: strong
    linked: [game]
    connections:
      - name: announce
        priority: factory
        script: log("start")
observers:
  - pattern: "game.*"
    priority: 7
    script: log(event)
`

const treeTOML = `
[log]
format = "json"

[loop]
queue_size = 16
task_timeout = 500

[[events]]
path = "ui"

[[events]]
path = "ui.click"
ghost = true
pause = "all"

  [[events.connections]]
  name = "click"
  script = "stop()"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv() []string { return nil }

func TestManager_DefaultsOnly(t *testing.T) {
	m := NewManager("", WithEnviron(noEnv))

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Log, cfg.Log)
	assert.Equal(t, 1024, cfg.Loop.QueueSize)
	assert.Empty(t, cfg.Events)
	assert.Equal(t, "", m.Path())
}

func TestManager_LoadYAML(t *testing.T) {
	path := writeFile(t, "tree.yaml", treeYAML)
	m := NewManager(path, WithEnviron(noEnv))

	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 64, cfg.Loop.QueueSize)

	timeout, err := cfg.Loop.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)

	require.Len(t, cfg.Events, 2)
	start := cfg.Events[1]
	assert.Equal(t, "game.start", start.Path)
	assert.True(t, start.Bubbling)
	assert.Equal(t, 3, start.DispatchLimit)
	assert.Equal(t, []string{"game"}, start.Linked)

	cooldown, err := start.CooldownDuration()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cooldown)

	require.Len(t, start.Connections, 1)
	assert.Equal(t, "announce", start.Connections[0].Name)
	assert.Equal(t, `log("start")`, start.Connections[0].Script)

	require.Len(t, cfg.Observers, 1)
	assert.Equal(t, "game.*", cfg.Observers[0].Pattern)

	assert.Equal(t, cfg, m.Get())
}

func TestManager_LoadTOML(t *testing.T) {
	path := writeFile(t, "tree.toml", treeTOML)
	m := NewManager(path, WithEnviron(noEnv))

	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 16, cfg.Loop.QueueSize)

	timeout, err := cfg.Loop.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, timeout)

	require.Len(t, cfg.Events, 2)
	click := cfg.Events[1]
	assert.True(t, click.Ghost)
	require.Len(t, click.Connections, 1)
	assert.Equal(t, "stop()", click.Connections[0].Script)
}

func TestManager_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "tree.yaml", treeYAML)
	m := NewManager(path, WithEnviron(func() []string {
		return []string{
			"EVENTSIGNAL_LOG_LEVEL=debug",
			"EVENTSIGNAL_LOOP_QUEUE_SIZE=8",
			"HOME=/tmp",
		}
	}))

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Loop.QueueSize)
}

func TestManager_FlagsOverrideEnv(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "warn", "")
	fs.String("log-format", "console", "")
	fs.Int("queue-size", 1024, "")
	fs.Bool("watch", false, "")
	require.NoError(t, fs.Parse([]string{"--log-level=error", "--watch"}))

	m := NewManager("", WithFlags(fs), WithEnviron(func() []string {
		return []string{"EVENTSIGNAL_LOG_LEVEL=debug", "EVENTSIGNAL_LOG_FORMAT=json"}
	}))

	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1024, cfg.Loop.QueueSize)
}

func TestManager_FileNotFound(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"), WithEnviron(noEnv))

	_, err := m.Load()
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestManager_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "tree.ini", "[log]\n")
	m := NewManager(path, WithEnviron(noEnv))

	_, err := m.Load()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestManager_TOMLParseError(t *testing.T) {
	path := writeFile(t, "tree.toml", "[log]\nlevel = \"info\"\nformat = [\n")
	m := NewManager(path, WithEnviron(noEnv))

	_, err := m.Load()
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "expected *ParseError, got %v", err)
	assert.Equal(t, path, perr.Path)
	assert.Greater(t, perr.Line, 0)
	assert.Contains(t, perr.Error(), "line")
}

func TestManager_YAMLParseError(t *testing.T) {
	path := writeFile(t, "tree.yaml", "events: [\n  path: a\n")
	m := NewManager(path, WithEnviron(noEnv))

	_, err := m.Load()
	var perr *ParseError
	assert.True(t, errors.As(err, &perr), "expected *ParseError, got %v", err)
}

func TestManager_InvalidKeepsPrevious(t *testing.T) {
	path := writeFile(t, "tree.yaml", treeYAML)
	m := NewManager(path, WithEnviron(noEnv))

	good, err := m.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("events:\n  - path: a\n    linked: [b]\n"), 0o644))
	_, err = m.Load()
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, good, m.Get())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("EVENTSIGNAL_LOG_LEVEL"))
	assert.Equal(t, "loop.queue_size", envKey("EVENTSIGNAL_LOOP_QUEUE_SIZE"))
	assert.Equal(t, "loop.task_timeout", envKey("EVENTSIGNAL_LOOP_TASK_TIMEOUT"))
}
