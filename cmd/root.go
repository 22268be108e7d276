package cmd

import (
	"os"

	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "social-publisher",
	Short:         "Scheduled multi-platform social publishing engine.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// OS env keeps precedence over the files
		loaded := configuration.LoadEnvFromFile("config.env", ".env")
		logger.GetLogger().WithField("files", loaded).Debug("Env files loaded")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Command failed")
		os.Exit(1)
	}
}
