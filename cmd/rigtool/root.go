package main

import (
	"github.com/spf13/cobra"

	"github.com/avatarforge/autorig/internal/config"
	"github.com/avatarforge/autorig/internal/logger"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "rigtool",
		Short:         "Auto-rigging engine for binary model containers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			cfg = loaded
			level := cfg.Logging.Level
			if logLevelFlag != "" {
				level = logLevelFlag
			}
			return logger.Init(logger.DefaultOptions(level, cfg.Logging.LogFile))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRigCommand(&cfg))
	rootCmd.AddCommand(newInspectCommand())

	return rootCmd
}
