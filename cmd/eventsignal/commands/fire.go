package commands

import (
	"github.com/spf13/cobra"

	"github.com/dshills/eventsignal/internal/app"
)

func newFireCommand(ro *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "fire <path> [args...]",
		Short: "Fire one event and print every handler it runs",
		Long: `fire builds the tree, fires the event at path once and prints each
handler invocation. Arguments are passed as integers, floats or booleans
when they parse as one, otherwise as strings.`,
		Example: `  eventsignal -c tree.yaml fire ui.click 10 20
  eventsignal -c tree.yaml fire game --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ro.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Shutdown(cmd.Context())

			return app.NewInterpreter(a, cmd.OutOrStdout()).Fire(args[0], all, args[1:])
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also fire every descendant")

	return cmd
}
