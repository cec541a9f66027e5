// Package cli wires the flowerchat commands: the HTTP server and a few
// smoke checks against the upstream marketplace.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flowerchat/backend/internal/config"
	"flowerchat/backend/internal/logging"
)

var (
	env *config.Env
	log *logrus.Logger

	logLevel string
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "flowerchat",
		Short:        "Shopping assistant backend for the flower marketplace",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			boot := logging.New("info", "text")
			env = config.LoadEnv(boot)
			if logLevel != "" {
				env.LogLevel = logLevel
			}
			log = logging.New(env.LogLevel, env.LogFormat)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(serveCmd(), tokenCmd(), citiesCmd(), searchCmd())
	return root
}
