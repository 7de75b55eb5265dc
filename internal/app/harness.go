package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/apiprobe/internal/config"
	"github.com/samvad-hq/apiprobe/internal/domain"
	"github.com/samvad-hq/apiprobe/internal/listener"
	"github.com/samvad-hq/apiprobe/internal/logger"
	"github.com/samvad-hq/apiprobe/internal/metrics"
	"github.com/samvad-hq/apiprobe/internal/routes"
	"github.com/samvad-hq/apiprobe/internal/shutdown"
	"github.com/samvad-hq/apiprobe/internal/storage"
	"github.com/samvad-hq/apiprobe/pkg/httpclient"
	"github.com/samvad-hq/apiprobe/pkg/presets"
	"github.com/samvad-hq/apiprobe/pkg/publishers"
)

// ErrUnknownPreset is returned when a preset id is not loaded.
var ErrUnknownPreset = errors.New("unknown preset")

// Harness represents the probe runtime. It owns the request client, the
// listener controller and the supporting inbox, presets and relay.
type Harness struct {
	cfg      *config.Config
	client   *httpclient.Client
	listener *listener.Controller
	inbox    storage.Store
	presets  *presets.Registry
	fanout   *publishers.Fanout
	log      logger.Logger
}

type harnessOptions struct {
	doer   httpclient.Doer
	binder func(routes.Deps) listener.Binder
}

// Option customizes harness construction.
type Option func(*harnessOptions)

// WithDoer replaces the outbound transport.
func WithDoer(d httpclient.Doer) Option {
	return func(o *harnessOptions) { o.doer = d }
}

// WithBinder replaces how the listener acquires its socket.
func WithBinder(b listener.Binder) Option {
	return func(o *harnessOptions) {
		o.binder = func(routes.Deps) listener.Binder { return b }
	}
}

// NewHarness builds a harness runtime from config and config files.
func NewHarness(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Harness, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := harnessOptions{
		binder: func(d routes.Deps) listener.Binder { return listener.HTTPBinder(routes.New(d)) },
	}
	for _, opt := range opts {
		opt(&o)
	}

	presetReg, err := presets.Load(cfg.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	log.InfoObj("presets loaded", "presets_meta", map[string]any{
		"count": presetReg.Len(),
		"ids":   presetReg.IDs(),
	})

	fanout, err := buildFanout(ctx, cfg.RelayFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.InboxStorageType, cfg.InboxBBoltPath, storage.Options{
		CallbackTTL:     cfg.InboxTTL,
		CleanupInterval: cfg.InboxCleanupInterval,
	})
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init inbox: %w", err)
	}
	log.InfoObj("inbox initialized", "inbox_config", map[string]any{
		"type":                     cfg.InboxStorageType,
		"path":                     cfg.InboxBBoltPath,
		"ttl_seconds":              int(cfg.InboxTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.InboxCleanupInterval.Seconds()),
	})

	clientOpts := []httpclient.Option{
		httpclient.WithLogger(log),
		httpclient.WithObserver(metrics.ObserveRequest),
	}
	if o.doer != nil {
		clientOpts = append(clientOpts, httpclient.WithDoer(o.doer))
	} else if logger.S != nil {
		clientOpts = append(clientOpts, httpclient.WithDoer(
			httpclient.NewRestyClient(cfg.Timeout, httpclient.WithRestyLogger(logger.S)),
		))
	}
	client := httpclient.New(httpclient.Config{
		BaseURL:   cfg.BaseURL,
		AuthToken: cfg.AuthToken,
		Timeout:   cfg.Timeout,
	}, clientOpts...)

	binder := o.binder(routes.Deps{
		Service: cfg.AppName,
		Inbox:   store,
		Relay:   fanout,
		Log:     log,
	})
	ctrl := listener.NewController(cfg.ListenerPort,
		listener.WithBinder(binder),
		listener.WithShutdownTimeout(cfg.ListenerShutdownTimeout),
		listener.WithLogger(log),
	)

	return &Harness{
		cfg:      cfg,
		client:   client,
		listener: ctrl,
		inbox:    store,
		presets:  presetReg,
		fanout:   fanout,
		log:      log,
	}, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Send executes d against the configured API. Failures are already logged by
// the client.
func (h *Harness) Send(ctx context.Context, d domain.RequestDescriptor) domain.Outcome {
	return h.client.Execute(ctx, d)
}

// SendRaw executes a request against an absolute URL without base URL or auth.
func (h *Harness) SendRaw(ctx context.Context, url string, opts httpclient.RawOptions) domain.Outcome {
	return h.client.ExecuteRaw(ctx, url, opts)
}

// RunPreset executes the preset with the given id.
func (h *Harness) RunPreset(ctx context.Context, id string) (domain.Outcome, error) {
	p, ok := h.presets.ByID(id)
	if !ok {
		return domain.Outcome{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	d, err := p.Descriptor()
	if err != nil {
		return domain.Outcome{}, err
	}
	return h.client.Execute(ctx, d), nil
}

// Presets returns the loaded presets in file order.
func (h *Harness) Presets() []presets.Preset {
	return h.presets.All()
}

// StartListener starts the local listener if it is not running.
func (h *Harness) StartListener(ctx context.Context) (listener.Result, error) {
	return h.listener.Start(ctx)
}

// StopListener stops the local listener if it is running.
func (h *Harness) StopListener(ctx context.Context) (listener.Result, error) {
	return h.listener.Stop(ctx)
}

// Status is a point-in-time summary of the harness.
type Status struct {
	BaseURL string
	Running bool
	Port    int
	Uptime  time.Duration
	Presets int
	Relays  int
}

// Status reports listener state and loaded configuration.
func (h *Harness) Status() Status {
	return Status{
		BaseURL: h.client.BaseURL(),
		Running: h.listener.IsRunning(),
		Port:    h.listener.Port(),
		Uptime:  h.listener.Uptime(),
		Presets: h.presets.Len(),
		Relays:  h.fanout.Size(),
	}
}

// RecentCallbacks returns the newest callbacks captured by the listener.
func (h *Harness) RecentCallbacks(limit int) ([]domain.Callback, error) {
	return h.inbox.RecentCallbacks(limit)
}

// RegisterShutdown registers teardown in dependency order: the listener stops
// before the relay and inbox it writes to are closed.
func (h *Harness) RegisterShutdown(m *shutdown.Manager) {
	m.Register("inbox", func(context.Context) error { return h.inbox.Close() })
	m.Register("relay", func(context.Context) error { return h.fanout.Close() })
	m.Register("listener", func(context.Context) error {
		h.listener.Cleanup()
		return nil
	})
}
