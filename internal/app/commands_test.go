package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/eventsignal/internal/event"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *syncBuffer, *Application) {
	t.Helper()
	app := newTestApp(t, gameTree)
	out := &syncBuffer{}
	return NewInterpreter(app, out), out, app
}

func TestInterpreter_Fire(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	require.NoError(t, in.Exec("fire game.start 1 two"))

	text := out.String()
	assert.Contains(t, text, "-> game.start/announce [strong] caller=game.start args=[1 two] ok")
	assert.Contains(t, text, "-> game/parent [weak] caller=game.start")
	assert.Contains(t, text, "fired game.start")
}

func TestInterpreter_FireAll(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	require.NoError(t, in.Exec("fireall game"))
	text := out.String()
	assert.Contains(t, text, "game/parent")
	assert.Contains(t, text, "game.start/announce")
	assert.Contains(t, text, "fired game and descendants")
}

func TestInterpreter_Errors(t *testing.T) {
	in, _, app := newTestInterpreter(t)

	assert.NoError(t, in.Exec(""))
	assert.NoError(t, in.Exec("# comment"))
	assert.ErrorIs(t, in.Exec("jump"), ErrUnknownCommand)
	assert.ErrorIs(t, in.Exec("fire"), ErrUsage)
	assert.ErrorIs(t, in.Exec("wait game"), ErrUsage)
	assert.ErrorIs(t, in.Exec("wait game soon"), ErrUsage)
	assert.ErrorIs(t, in.Exec("pause nope"), event.ErrNodeNotFound)
	assert.ErrorIs(t, in.Exec("pause game loud"), event.ErrInvalidPriority)
	assert.ErrorIs(t, in.Exec("quit"), ErrQuit)

	snap := app.Metrics().Snapshot()
	assert.Equal(t, uint64(6), snap.CommandsFailed)
}

func TestInterpreter_PauseResume(t *testing.T) {
	in, out, app := newTestInterpreter(t)
	start, _ := app.Tree().Lookup("game.start")

	require.NoError(t, in.Exec("pause game.start weak"))
	assert.Equal(t, event.StatePartiallyPaused, start.State())
	assert.Contains(t, out.String(), "game.start partiallyPaused (partiallyListening)")

	require.NoError(t, in.Exec("pause game.start"))
	assert.Equal(t, event.StateFullyPaused, start.State())

	require.NoError(t, in.Exec("resume game.start"))
	assert.Equal(t, event.StateListening, start.State())

	require.NoError(t, in.Exec("disable game.start"))
	assert.False(t, start.IsEnabled())
	require.NoError(t, in.Exec("enable game.start"))
	assert.True(t, start.IsEnabled())

	require.NoError(t, in.Exec("ghost game.start"))
	assert.True(t, start.IsGhost())
	require.NoError(t, in.Exec("unghost game.start"))
	assert.False(t, start.IsGhost())
}

func TestInterpreter_PatternTargets(t *testing.T) {
	in, out, app := newTestInterpreter(t)

	require.NoError(t, in.Exec("match ui.*"))
	assert.Contains(t, out.String(), "ui.click listening (allListening)")
	assert.Contains(t, out.String(), "1 nodes match ui.*")

	require.NoError(t, in.Exec("disable *"))
	for _, path := range []string{"game", "ui"} {
		n, ok := app.Tree().Lookup(path)
		require.True(t, ok)
		assert.False(t, n.IsEnabled(), path)
	}
	start, _ := app.Tree().Lookup("game.start")
	assert.True(t, start.IsEnabled())

	require.NoError(t, in.Exec("pause game.*"))
	assert.Contains(t, out.String(), "game.start fullyPaused (fullyPaused)")

	// Nodes created after a match are picked up by the next one.
	_, err := app.Tree().Node("game.end")
	require.NoError(t, err)
	require.NoError(t, in.Exec("match game.*"))
	assert.Contains(t, out.String(), "2 nodes match game.*")

	assert.ErrorIs(t, in.Exec("pause zz.*"), event.ErrNodeNotFound)
	assert.ErrorIs(t, in.Exec("match a..b"), event.ErrInvalidPath)
}

func TestInterpreter_Wait(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	require.NoError(t, in.Exec("wait game 5"))
	require.NoError(t, in.Exec("fire game 42"))
	in.Wait()
	assert.Contains(t, out.String(), "wait game: resolved args=[42]")

	require.NoError(t, in.Exec("wait ui 0.02"))
	in.Wait()
	assert.Contains(t, out.String(), "wait ui: "+event.ErrEventTimeout.Error())
}

func TestInterpreter_StatsAndTree(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	require.NoError(t, in.Exec("fire game"))
	require.NoError(t, in.Exec("stats game"))
	assert.Contains(t, out.String(), "game dispatched=1 rejected_while_paused=0")

	require.NoError(t, in.Exec("stats"))
	assert.Contains(t, out.String(), "fires=1")

	require.NoError(t, in.Exec("tree"))
	assert.Contains(t, out.String(), "event tree (4 nodes)")

	require.NoError(t, in.Exec("help"))
	assert.Contains(t, out.String(), "wait <path> <seconds>")
}

func TestInterpreter_Run(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	script := strings.Join([]string{
		"fire game",
		"bogus",
		"quit",
		"fire game.start",
	}, "\n")

	require.NoError(t, in.Run(context.Background(), strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "fired game")
	assert.Contains(t, text, "error: unknown command: bogus")
	assert.NotContains(t, text, "fired game.start")
}

func TestInterpreter_RunEOF(t *testing.T) {
	in, out, _ := newTestInterpreter(t)

	require.NoError(t, in.Run(context.Background(), strings.NewReader("fire ui\n")))
	assert.Contains(t, out.String(), "fired ui")
}

func TestInterpreter_RunCancelled(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// A reader that never returns keeps the loop waiting on ctx.
	r, release := blockingReader()
	defer release()
	assert.ErrorIs(t, in.Run(ctx, r), context.DeadlineExceeded)
}

func TestParseArgs(t *testing.T) {
	got := ParseArgs([]string{"1", "-2", "1.5", "true", "false", "word", "0x10"})
	assert.Equal(t, []any{1, -2, 1.5, true, false, "word", "0x10"}, got)
}

func blockingReader() (*blocking, func()) {
	b := &blocking{done: make(chan struct{})}
	return b, func() { close(b.done) }
}

type blocking struct {
	done chan struct{}
}

func (b *blocking) Read([]byte) (int, error) {
	<-b.done
	return 0, context.Canceled
}
