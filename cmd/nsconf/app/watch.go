package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/nsconf/internal/config/notify"
)

func newWatchCmd(opts *loadOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print configuration changes as files are edited",
		Long: `Load the --file patterns, then keep reloading them as they change and print
one line per changed entry until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			specs, err := opts.specs()
			if err != nil {
				return err
			}
			cfg := newConfig()
			defer cfg.Close()

			out := cmd.OutOrStdout()
			cfg.Subscribe(func(ch notify.Change) {
				if ch.Type == notify.ChangeSet {
					fmt.Fprintf(out, "%s %s = %v\n", ch.Type, ch.Path(), ch.NewValue)
				}
			})

			for _, spec := range specs {
				if err := cfg.Watch(ctx, spec.pattern, spec.namespace, opts.fileOptions()...); err != nil {
					return err
				}
			}

			<-ctx.Done()
			return nil
		},
	}
}
