// Package main is the entry point for the eventsignal command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/eventsignal/cmd/eventsignal/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Interrupts cancel the command context; run drains and shuts down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.NewCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
