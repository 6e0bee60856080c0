// Package app provides the commands of the nsconf command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/nsconf/internal/logger"
)

// NewRootCmd creates the root command for the nsconf CLI.
func NewRootCmd() *cobra.Command {
	opts := &loadOptions{}

	rootCmd := &cobra.Command{
		Use:               "nsconf",
		DisableAutoGenTag: true,
		Short:             "Inspect hierarchical namespaced configuration",
		Long: `nsconf loads JSON, TOML and YAML files into dotted configuration namespaces
and lets you inspect the resulting tree.

Files are given with --file pattern[=namespace]. Without a namespace a pattern
loads into the root. Without any --file flag, $XDG_CONFIG_HOME/nsconf/*.json
is loaded into the root.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Get().Error("displaying help", "error", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Get().Error("binding debug flag", "error", err)
	}
	rootCmd.PersistentFlags().StringArrayVarP(&opts.files, "file", "f", nil,
		"File pattern to load, optionally followed by =namespace (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&opts.perFile, "per-file", false,
		"Load each file into a child namespace named after the file")

	rootCmd.AddCommand(newDumpCmd(opts))
	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newLsCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))

	return rootCmd
}
