package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/nsconf/internal/config/export"
)

func newGetCmd(opts *loadOptions) *cobra.Command {
	var query bool

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a dotted path",
		Long: `Print the value at a dotted path such as service.database.host.

Leading components name namespaces, the next one an entry, and any further
components index into nested maps. With --query the path is evaluated as a
gjson query against the JSON rendering of the whole tree instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			defer cfg.Close()

			out := cmd.OutOrStdout()
			if query {
				res, err := export.Query(cfg.Root(), args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, res.String())
				return err
			}

			v, err := cfg.Root().Lookup(args[0])
			if err != nil {
				return err
			}
			return printValue(cmd, v)
		},
	}

	cmd.Flags().BoolVarP(&query, "query", "q", false, "Treat the path as a gjson query")
	return cmd
}

// printValue writes strings bare and everything else as JSON.
func printValue(cmd *cobra.Command, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
