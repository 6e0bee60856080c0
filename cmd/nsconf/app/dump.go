package app

import (
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/dshills/nsconf/internal/config/export"
)

func newDumpCmd(opts *loadOptions) *cobra.Command {
	var color bool

	cmd := &cobra.Command{
		Use:   "dump [namespace]",
		Short: "Print a namespace and everything below it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			defer cfg.Close()

			ns := ""
			if len(args) == 1 {
				ns = args[0]
			}
			v, err := cfg.Namespace(ns)
			if err != nil {
				return err
			}

			out, err := export.Pretty(v)
			if err != nil {
				return err
			}
			if color {
				out = pretty.Color(out, pretty.TerminalStyle)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&color, "color", false, "Colorize the output")
	return cmd
}
