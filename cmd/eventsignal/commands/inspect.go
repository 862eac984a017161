package commands

import (
	"github.com/spf13/cobra"

	"github.com/dshills/eventsignal/internal/app"
)

func newInspectCommand(ro *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the configured tree with node states and connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := ro.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Shutdown(cmd.Context())

			rt := a.Runtime()
			return app.BuildReport(rt.Tree).WithLoop(rt.Loop).Write(cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", app.FormatText, "Output format (text, yaml or json)")

	return cmd
}
