package main

import (
	"os"

	"github.com/spf13/cobra"

	"launchpad/config"
	"launchpad/logging"
)

var version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	config *config.ConfigManager
}

func (o *RootOptions) Config() *config.Config {
	return o.config.GetConfig()
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "launchpad",
		Short: "Token presale and staking engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.LoadConfigManager(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.config = manager

			level := manager.GetConfig().Log.Level
			if opts.Verbose {
				level = "debug"
			}
			return logging.Setup(os.Stderr, level, manager.GetConfig().Log.Format)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("LAUNCHPAD_CONFIG"), "path to yaml config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewPdaCommand(opts))
	cmd.AddCommand(NewInstructionCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	})
	return cmd
}
