package app

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func newLsCmd(opts *loadOptions) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls [namespace]",
		Short: "List the child namespaces and entries of a namespace",
		Long: `List the child namespaces and entries of a namespace. Child namespaces are
printed with a trailing dot. With --recursive every namespace path at or below
the given namespace is printed instead.`,
		Args: cobra.MaximumNArgs(1),
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

			out := cmd.OutOrStdout()
			if recursive {
				for _, p := range cfg.Namespaces() {
					if p == "" || !within(ns, p) {
						continue
					}
					fmt.Fprintln(out, p)
				}
				return nil
			}

			children := v.Namespaces()
			for _, name := range slices.Sorted(maps.Keys(children)) {
				fmt.Fprintln(out, name+".")
			}
			for _, key := range v.Keys() {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "List all namespaces below the namespace")
	return cmd
}

// within reports whether path is ns or lies below it.
func within(ns, path string) bool {
	if ns == "" || ns == path {
		return true
	}
	return len(path) > len(ns) && path[:len(ns)] == ns && path[len(ns)] == '.'
}
