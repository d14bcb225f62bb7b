package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "subtrans",
		Short:         "Subtitle translation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	loadConfig := func() *config.Config {
		if configFlag != "" {
			os.Setenv("CONFIG_FILE", configFlag)
		}
		return config.Load()
	}

	rootCmd.AddCommand(newServeCommand(loadConfig))
	rootCmd.AddCommand(newTranslateCommand(loadConfig))
	rootCmd.AddCommand(newWatchCommand(loadConfig))
	rootCmd.AddCommand(newTracksCommand())
	rootCmd.AddCommand(newProvidersCommand(loadConfig))

	return rootCmd
}
