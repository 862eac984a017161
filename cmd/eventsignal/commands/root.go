// Package commands implements the eventsignal command line.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/eventsignal/internal/app"
	"github.com/dshills/eventsignal/internal/config"
	"github.com/dshills/eventsignal/internal/logging"
)

const cliExecutable = "eventsignal"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	queueSize  int
}

// NewCommand constructs the top-level eventsignal command.
func NewCommand() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Build, inspect and drive a priority-aware event tree",
		Long: `eventsignal loads an event tree from a YAML or TOML file, connects the
Lua handlers it declares and dispatches events through it.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Flags only; the file and environment are applied once loaded.
			return logging.Configure(ro.logLevel, ro.logFormat)
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&ro.configFile, "config", "c", "", "Event tree file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&ro.logFormat, "log-format", "", "Log format (console or json)")
	cmd.PersistentFlags().IntVar(&ro.queueSize, "queue-size", 0, "Capacity of the posted-fire queue")

	cmd.AddCommand(newInspectCommand(ro))
	cmd.AddCommand(newFireCommand(ro))
	cmd.AddCommand(newRunCommand(ro))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// open loads the configuration named by the persistent flags and builds
// the application. Changed flags override the file and environment.
func (ro *rootOptions) open(cmd *cobra.Command, watch bool) (*app.Application, error) {
	return app.New(app.Options{
		ConfigPath: ro.configFile,
		Flags:      cmd.Flags(),
		Watch:      watch,
		Logger:     logging.NewLogger(cliExecutable),
		Logging:    configureLogging,
	})
}

func configureLogging(lc config.LogConfig) (zerolog.Logger, error) {
	if err := logging.Configure(lc.Level, lc.Format); err != nil {
		return zerolog.Logger{}, err
	}
	return logging.NewLogger(cliExecutable), nil
}
