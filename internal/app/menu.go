package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/samvad-hq/apiprobe/internal/domain"
	"github.com/samvad-hq/apiprobe/internal/listener"
	"github.com/samvad-hq/apiprobe/internal/storage"
	"github.com/samvad-hq/apiprobe/pkg/presets"
)

// Action is one entry of the interactive menu.
type Action string

const (
	ActionSend      Action = "send"
	ActionPreset    Action = "preset"
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
	ActionStatus    Action = "status"
	ActionCallbacks Action = "callbacks"
	ActionQuit      Action = "quit"
)

// RequestInput is the raw text of a custom request form.
type RequestInput struct {
	Method string
	Path   string
	Body   string
	Query  string
}

// Prompter collects user choices. The huh implementation drives a terminal;
// tests script it.
type Prompter interface {
	Action(ctx context.Context, listenerRunning bool) (Action, error)
	Request(ctx context.Context) (RequestInput, error)
	Preset(ctx context.Context, items []presets.Preset) (string, error)
}

// RunMenu loops until the user quits or ctx is cancelled. Aborting a sub-form
// returns to the menu; aborting the menu itself quits.
func (h *Harness) RunMenu(ctx context.Context, p Prompter, out io.Writer) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		action, err := p.Action(ctx, h.listener.IsRunning())
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if action == ActionQuit {
			return nil
		}

		if err := h.Dispatch(ctx, action, p, out); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// Dispatch performs a single menu action and writes its result to out.
func (h *Harness) Dispatch(ctx context.Context, action Action, p Prompter, out io.Writer) error {
	switch action {
	case ActionSend:
		in, err := p.Request(ctx)
		if err != nil {
			return err
		}
		d, err := BuildDescriptor(in.Method, in.Path, in.Body, []string{in.Query})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, FormatOutcome(h.Send(ctx, d)))

	case ActionPreset:
		items := h.Presets()
		if len(items) == 0 {
			fmt.Fprintf(out, "no presets loaded from %s\n", h.cfg.PresetsFile)
			return nil
		}
		id, err := p.Preset(ctx, items)
		if err != nil {
			return err
		}
		outcome, err := h.RunPreset(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, FormatOutcome(outcome))

	case ActionStart:
		res, err := h.StartListener(ctx)
		if err != nil {
			return err
		}
		if res == listener.AlreadyRunning {
			fmt.Fprintf(out, "listener already running on port %d\n", h.listener.Port())
			return nil
		}
		fmt.Fprintf(out, "listener started on port %d\n", h.listener.Port())

	case ActionStop:
		res, err := h.StopListener(ctx)
		if err != nil {
			return err
		}
		if res == listener.NotRunning {
			fmt.Fprintln(out, "listener is not running")
			return nil
		}
		fmt.Fprintln(out, "listener stopped")

	case ActionStatus:
		fmt.Fprintln(out, FormatStatus(h.Status()))

	case ActionCallbacks:
		cbs, err := h.RecentCallbacks(storage.DefaultListLimit)
		if err != nil {
			return fmt.Errorf("read inbox: %w", err)
		}
		fmt.Fprintln(out, FormatCallbacks(cbs))

	case ActionQuit:
		return nil

	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

// HuhPrompter renders the menu with charmbracelet/huh.
type HuhPrompter struct{}

// NewPrompter returns the terminal prompter.
func NewPrompter() *HuhPrompter { return &HuhPrompter{} }

func (HuhPrompter) Action(ctx context.Context, listenerRunning bool) (Action, error) {
	toggle := huh.NewOption("Start listener", ActionStart)
	if listenerRunning {
		toggle = huh.NewOption("Stop listener", ActionStop)
	}

	var action Action
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("Send custom request", ActionSend),
					huh.NewOption("Run preset request", ActionPreset),
					toggle,
					huh.NewOption("Listener status", ActionStatus),
					huh.NewOption("Show received callbacks", ActionCallbacks),
					huh.NewOption("Quit", ActionQuit),
				).
				Value(&action),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return action, nil
}

func (HuhPrompter) Request(ctx context.Context) (RequestInput, error) {
	in := RequestInput{Method: string(domain.MethodGet)}

	methods := make([]huh.Option[string], 0, len(domain.Methods))
	for _, m := range domain.Methods {
		methods = append(methods, huh.NewOption(string(m), string(m)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method").
				Options(methods...).
				Value(&in.Method),
			huh.NewInput().
				Title("Path").
				Placeholder("/users").
				Value(&in.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("path is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Body (JSON)").
				Placeholder(`{"name": "Ada"}`).
				Value(&in.Body).
				Validate(func(s string) error {
					_, err := ParseBody(s)
					return err
				}),
		).WithHideFunc(func() bool { return !domain.Method(in.Method).AllowsBody() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Query (k=v&k2=v2)").
				Value(&in.Query),
		).WithHideFunc(func() bool { return domain.Method(in.Method) != domain.MethodGet }),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return RequestInput{}, err
	}
	return in, nil
}

func (HuhPrompter) Preset(ctx context.Context, items []presets.Preset) (string, error) {
	opts := make([]huh.Option[string], 0, len(items))
	for _, p := range items {
		opts = append(opts, huh.NewOption(p.Label(), p.ID))
	}

	var id string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Preset").
				Options(opts...).
				Value(&id),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return id, nil
}
