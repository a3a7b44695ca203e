package main

import (
	"github.com/spf13/cobra"

	"github.com/openradar/TINT/internal/config"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

// loadConfig reads the configuration file and applies global flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "tint",
		Short:         "Track convective cells through gridded radar volumes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newTrackCommand(opts))
	rootCmd.AddCommand(newParamsCommand(opts))
	rootCmd.AddCommand(newSessionsCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))

	return rootCmd
}
