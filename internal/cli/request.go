package cli

import (
	"context"
	"fmt"

	"github.com/samvad-hq/apiprobe/internal/app"
	"github.com/spf13/cobra"
)

func newRequestCmd(opts Options) *cobra.Command {
	var (
		data  string
		query []string
	)

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a single request and print the outcome",
		Example: `  apiprobe request GET /users --query page=2
  apiprobe request POST /users --data '{"name":"Ada"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.BuildDescriptor(args[0], args[1], data, query)
			if err != nil {
				return err
			}
			return withHarness(cmd, opts, func(ctx context.Context, h *app.Harness) error {
				out := h.Send(ctx, d)
				fmt.Fprintln(opts.Out, app.FormatOutcome(out))
				if !out.OK() {
					return fmt.Errorf("%w: %s", ErrRequestFailed, out.Kind())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body (POST, PUT, PATCH)")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter k=v, repeatable (GET)")
	return cmd
}
