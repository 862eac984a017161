package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/dshills/eventsignal/internal/event"
	"github.com/dshills/eventsignal/internal/event/topic"
)

// command is one interpreter command.
type command struct {
	usage string
	help  string
	min   int
	run   func(in *Interpreter, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"fire":    {usage: "fire <path> [args...]", help: "fire a node", min: 1, run: (*Interpreter).cmdFire},
		"fireall": {usage: "fireall <path> [args...]", help: "fire a node and its subtree", min: 1, run: (*Interpreter).cmdFireAll},
		"post":    {usage: "post <path> [args...]", help: "queue a fire on the loop", min: 1, run: (*Interpreter).cmdPost},
		"pause":   {usage: "pause <path|pattern> [priority]", help: "pause nodes, or priorities up to one", min: 1, run: (*Interpreter).cmdPause},
		"resume":  {usage: "resume <path|pattern> [priority]", help: "resume nodes, or priorities above one", min: 1, run: (*Interpreter).cmdResume},
		"enable":  {usage: "enable <path|pattern>", help: "enable nodes", min: 1, run: (*Interpreter).cmdEnable},
		"disable": {usage: "disable <path|pattern>", help: "disable nodes", min: 1, run: (*Interpreter).cmdDisable},
		"ghost":   {usage: "ghost <path|pattern>", help: "skip nodes' handlers", min: 1, run: (*Interpreter).cmdGhost},
		"unghost": {usage: "unghost <path|pattern>", help: "run nodes' handlers again", min: 1, run: (*Interpreter).cmdUnghost},
		"match":   {usage: "match <pattern>", help: "list nodes matching a pattern", min: 1, run: (*Interpreter).cmdMatch},
		"wait":    {usage: "wait <path> <seconds>", help: "report the node's next dispatch", min: 2, run: (*Interpreter).cmdWait},
		"stats":   {usage: "stats [path]", help: "show node or application counters", run: (*Interpreter).cmdStats},
		"tree":    {usage: "tree", help: "show the tree", run: (*Interpreter).cmdTree},
		"reload":  {usage: "reload", help: "reload the configuration", run: (*Interpreter).cmdReload},
		"help":    {usage: "help", help: "list commands", run: (*Interpreter).cmdHelp},
		"quit":    {usage: "quit", help: "exit", run: (*Interpreter).cmdQuit},
	}
}

// Interpreter runs text commands against an application. Output from
// asynchronous waits and handler traces is serialized with command output.
type Interpreter struct {
	app *Application

	mu  sync.Mutex
	out io.Writer

	waits sync.WaitGroup
}

// NewInterpreter creates an interpreter writing to out. Every handler
// invocation is echoed as it happens.
func NewInterpreter(app *Application, out io.Writer) *Interpreter {
	in := &Interpreter{app: app, out: out}
	app.OnInvoke(in.trace)
	app.OnReload(func(rt *Runtime, err error) {
		if err != nil {
			in.printf("reload failed: %v\n", err)
			return
		}
		in.printf("reloaded %d nodes\n", rt.Tree.Len())
	})
	return in
}

func (in *Interpreter) printf(format string, args ...any) {
	in.mu.Lock()
	defer in.mu.Unlock()
	fmt.Fprintf(in.out, format, args...)
}

func (in *Interpreter) trace(inv Invocation) {
	status := "ok"
	if inv.Err != nil {
		status = "error: " + inv.Err.Error()
	}
	in.printf("  -> %s/%s [%s] caller=%s args=%v %s\n",
		inv.Target, inv.Connection, inv.Priority, inv.Caller, inv.Args, status)
}

// Run reads commands from r until quit, EOF or ctx is done. Command
// errors are printed and do not end the loop.
func (in *Interpreter) Run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			err := in.Exec(line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				in.printf("error: %v\n", err)
			}
		}
	}
}

// Exec runs a single command line. Blank lines and lines starting with
// # are ignored.
func (in *Interpreter) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := commands[name]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, name)
		in.app.metrics.RecordCommand(err)
		return err
	}
	if len(args) < cmd.min {
		err := fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		in.app.metrics.RecordCommand(err)
		return err
	}

	err := cmd.run(in, args)
	if errors.Is(err, ErrQuit) {
		return err
	}
	in.app.metrics.RecordCommand(err)
	return err
}

// Wait blocks until every pending wait command has settled.
func (in *Interpreter) Wait() {
	in.waits.Wait()
}

func (in *Interpreter) node(path string) (*event.Node, error) {
	n, ok := in.app.Tree().Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", event.ErrNodeNotFound, path)
	}
	return n, nil
}

// Fire fires path with words parsed by ParseArgs, echoing each handler
// run. all fires the subtree as well.
func (in *Interpreter) Fire(path string, all bool, words []string) error {
	args := ParseArgs(words)
	if all {
		if err := in.app.FireAll(path, args...); err != nil {
			return NewOperationError("fireall", path, err)
		}
		in.printf("fired %s and descendants\n", path)
		return nil
	}
	if err := in.app.Fire(path, args...); err != nil {
		return NewOperationError("fire", path, err)
	}
	in.printf("fired %s\n", path)
	return nil
}

func (in *Interpreter) cmdFire(args []string) error {
	return in.Fire(args[0], false, args[1:])
}

func (in *Interpreter) cmdFireAll(args []string) error {
	return in.Fire(args[0], true, args[1:])
}

func (in *Interpreter) cmdPost(args []string) error {
	if err := in.app.Post(context.Background(), args[0], ParseArgs(args[1:])...); err != nil {
		return NewOperationError("post", args[0], err)
	}
	in.printf("posted %s\n", args[0])
	return nil
}

// targets resolves a path, or a wildcard pattern through the tree's
// match cache, to the nodes a command applies to.
func (in *Interpreter) targets(arg string) ([]*event.Node, error) {
	if !topic.Topic(arg).IsWildcard() {
		n, err := in.node(arg)
		if err != nil {
			return nil, err
		}
		return []*event.Node{n}, nil
	}
	nodes, err := in.app.Tree().Match(arg)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %q", event.ErrNodeNotFound, arg)
	}
	return nodes, nil
}

// each applies fn to every target of arg.
func (in *Interpreter) each(arg string, fn func(n *event.Node)) error {
	nodes, err := in.targets(arg)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fn(n)
	}
	return nil
}

func (in *Interpreter) cmdPause(args []string) error {
	pause := (*event.Node).Pause
	if len(args) > 1 {
		p, err := event.ParsePriority(args[1])
		if err != nil {
			return NewOperationError("pause", args[0], err)
		}
		pause = func(n *event.Node) { n.PauseWithPriority(p) }
	}
	return in.each(args[0], func(n *event.Node) {
		pause(n)
		in.printf("%s %s (%s)\n", n.Name(), n.State(), n.Eligibility())
	})
}

func (in *Interpreter) cmdResume(args []string) error {
	resume := (*event.Node).Resume
	if len(args) > 1 {
		p, err := event.ParsePriority(args[1])
		if err != nil {
			return NewOperationError("resume", args[0], err)
		}
		resume = func(n *event.Node) { n.ResumeWithPriority(p) }
	}
	return in.each(args[0], func(n *event.Node) {
		resume(n)
		in.printf("%s %s (%s)\n", n.Name(), n.State(), n.Eligibility())
	})
}

func (in *Interpreter) cmdEnable(args []string) error {
	return in.each(args[0], func(n *event.Node) {
		n.Enable()
		in.printf("%s %s\n", n.Name(), n.State())
	})
}

func (in *Interpreter) cmdDisable(args []string) error {
	return in.each(args[0], func(n *event.Node) {
		n.Disable()
		in.printf("%s %s\n", n.Name(), n.State())
	})
}

func (in *Interpreter) cmdGhost(args []string) error {
	return in.each(args[0], func(n *event.Node) {
		n.SetGhost()
		in.printf("%s ghost\n", n.Name())
	})
}

func (in *Interpreter) cmdUnghost(args []string) error {
	return in.each(args[0], func(n *event.Node) {
		n.UnsetGhost()
		in.printf("%s unghosted\n", n.Name())
	})
}

func (in *Interpreter) cmdMatch(args []string) error {
	nodes, err := in.app.Tree().Match(args[0])
	if err != nil {
		return NewOperationError("match", args[0], err)
	}
	for _, n := range nodes {
		in.printf("%s %s (%s)\n", n.Name(), n.State(), n.Eligibility())
	}
	in.printf("%d nodes match %s\n", len(nodes), args[0])
	return nil
}

func (in *Interpreter) cmdWait(args []string) error {
	n, err := in.node(args[0])
	if err != nil {
		return err
	}
	secs, err := cast.ToFloat64E(args[1])
	if err != nil || secs < 0 {
		return fmt.Errorf("%w: wait <path> <seconds>", ErrUsage)
	}

	path := args[0]
	w := n.Wait(time.Duration(secs * float64(time.Second)))
	in.printf("waiting for %s\n", path)

	in.waits.Add(1)
	go func() {
		defer in.waits.Done()
		got, err := w.Await(context.Background())
		if err != nil {
			in.printf("wait %s: %v\n", path, err)
			return
		}
		in.printf("wait %s: resolved args=%v\n", path, got)
	}()
	return nil
}

func (in *Interpreter) cmdStats(args []string) error {
	if len(args) == 0 {
		rt := in.app.Runtime()
		r := TreeReport{}.WithLoop(rt.Loop).WithMetrics(in.app.metrics.Snapshot())
		in.mu.Lock()
		defer in.mu.Unlock()
		return r.Write(in.out, FormatText)
	}

	n, err := in.node(args[0])
	if err != nil {
		return err
	}
	r := ReportNode(args[0], n)
	in.printf("%s dispatched=%d rejected_while_paused=%d last=%s waiters=%d state=%s reason=%s\n",
		r.Path, r.Stats.Dispatched, r.Stats.RejectedWhilePaused, orDash(r.Stats.LastDispatched),
		r.Waiters, r.State, r.Reason)
	return nil
}

func (in *Interpreter) cmdTree(_ []string) error {
	r := BuildReport(in.app.Tree())
	in.mu.Lock()
	defer in.mu.Unlock()
	return r.Write(in.out, FormatText)
}

func (in *Interpreter) cmdReload(_ []string) error {
	// The reload hook reports the outcome.
	_ = in.app.Reload()
	return nil
}

func (in *Interpreter) cmdHelp(_ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	in.mu.Lock()
	defer in.mu.Unlock()
	for _, name := range names {
		fmt.Fprintf(in.out, "  %-34s %s\n", commands[name].usage, commands[name].help)
	}
	return nil
}

func (in *Interpreter) cmdQuit(_ []string) error {
	return ErrQuit
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ParseArgs converts command-line words into dispatch arguments: integers,
// then floats, then true/false, otherwise the word itself.
func ParseArgs(words []string) []any {
	out := make([]any, len(words))
	for i, w := range words {
		out[i] = parseArg(w)
	}
	return out
}

func parseArg(w string) any {
	if n, err := strconv.ParseInt(w, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(w, 64); err == nil {
		return f
	}
	switch w {
	case "true":
		return true
	case "false":
		return false
	}
	return w
}
