package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/eventsignal/internal/app"
)

func newRunCommand(ro *rootOptions) *cobra.Command {
	var (
		watch bool
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read commands from stdin and drive the tree",
		Long: `run starts the tree and its posted-fire loop, then executes one command
per input line until quit, end of input or an interrupt. Type help for
the command list. With --watch the tree is rebuilt when the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := ro.open(cmd, watch)
			if err != nil {
				return err
			}
			if err := a.Start(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := app.NewInterpreter(a, out)
			if !quiet {
				fmt.Fprintf(out, "%s: %d nodes loaded, type help for commands\n", cliExecutable, a.Tree().Len())
			}

			runErr := in.Run(cmd.Context(), cmd.InOrStdin())
			in.Wait()

			ctx, cancel := context.WithTimeout(context.Background(), app.DefaultShutdownTimeout)
			defer cancel()
			if err := a.Shutdown(ctx); err != nil {
				return err
			}

			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild the tree when the config file changes")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the banner")

	return cmd
}
