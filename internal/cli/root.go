// Package cli wires the cobra commands of apiprobe.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/apiprobe/internal/app"
	"github.com/samvad-hq/apiprobe/internal/config"
	"github.com/samvad-hq/apiprobe/internal/logger"
	"github.com/samvad-hq/apiprobe/internal/shutdown"
	"github.com/spf13/cobra"
)

// ErrRequestFailed is returned by the request command when the API call
// failed. The outcome has already been printed and logged.
var ErrRequestFailed = errors.New("request failed")

// Options customizes the command tree, mainly for tests.
type Options struct {
	Out        io.Writer
	Prompter   app.Prompter
	HarnessOps []app.Option
}

// NewRootCmd builds the apiprobe command tree. Without a subcommand it runs
// the interactive menu.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = app.NewPrompter()
	}

	root := &cobra.Command{
		Use:   "apiprobe",
		Short: "Exercise an HTTP API and capture its callbacks",
		Long: `apiprobe sends requests to a configured API and runs a local listener
that records webhook callbacks.

Configuration comes from configs/.env, environment variables and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHarness(cmd, opts, func(ctx context.Context, h *app.Harness) error {
				return h.RunMenu(ctx, opts.Prompter, opts.Out)
			})
		},
	}

	pf := root.PersistentFlags()
	pf.String("base-url", "", "API base URL (api_base_url)")
	pf.String("token", "", "bearer token sent as Authorization header (api_auth_token)")
	pf.Int("port", 3000, "local listener port, 0 for ephemeral (listener_port)")
	pf.Int64("timeout-ms", 30000, "request timeout in milliseconds (api_timeout_ms)")
	pf.String("log-level", "info", "log level: debug, info, warn, error (log_level)")

	root.AddCommand(newRequestCmd(opts), newListenCmd(opts))
	return root
}

// withHarness loads configuration, builds the harness and guarantees bounded
// teardown after fn returns, including when ctx was cancelled by a signal.
func withHarness(cmd *cobra.Command, opts Options, fn func(context.Context, *app.Harness) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Default()
	log.InfoObj("apiprobe starting", "config", cfg.Redacted())

	m := shutdown.NewManager(log, 2*cfg.ListenerShutdownTimeout)
	m.Register("logger", func(context.Context) error {
		_ = logger.Close()
		return nil
	})

	h, err := app.NewHarness(ctx, cfg, log, opts.HarnessOps...)
	if err != nil {
		_ = m.Shutdown()
		return fmt.Errorf("init harness: %w", err)
	}
	h.RegisterShutdown(m)
	defer m.Shutdown()

	return fn(ctx, h)
}
