package cli

import (
	"context"
	"fmt"

	"github.com/samvad-hq/apiprobe/internal/app"
	"github.com/spf13/cobra"
)

func newListenCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Run the callback listener until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHarness(cmd, opts, func(ctx context.Context, h *app.Harness) error {
				if _, err := h.StartListener(ctx); err != nil {
					return err
				}
				fmt.Fprintf(opts.Out, "listening on port %d (ctrl+c to stop)\n", h.Status().Port)

				<-ctx.Done()

				if _, err := h.StopListener(context.Background()); err != nil {
					return err
				}
				fmt.Fprintln(opts.Out, "listener stopped")
				return nil
			})
		},
	}
}
