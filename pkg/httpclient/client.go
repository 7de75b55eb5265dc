package httpclient

import (
	"context"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

// Observer receives one call per executed request.
type Observer func(method, outcome string, elapsed time.Duration)

// Client executes descriptors against the configured API. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	cfg     Config
	doer    Doer
	log     Logger
	observe Observer
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the resty transport.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithLogger sets the failure logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver sets the metrics hook.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// New builds a Client. A non-positive timeout falls back to DefaultTimeout.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg: cfg,
		log: noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		c.doer = NewRestyClient(cfg.Timeout)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Execute runs d against the configured base URL with auth applied. Every
// failure is logged here and returned; callers should not log it again.
func (c *Client) Execute(ctx context.Context, d domain.RequestDescriptor) domain.Outcome {
	wire, err := BuildRequest(c.cfg, d)
	if err != nil {
		out := domain.Fail(domain.KindInvalidRequest, 0, err.Error())
		c.record(d.Method, out, 0)
		c.logFailure(d.Method, d.Path, out, nil)
		return out
	}

	out, body := c.roundTrip(ctx, wire)
	if !out.OK() {
		c.logFailure(wire.Method, wire.URL, out, body)
	}
	return out
}

// ExecuteRaw runs a one-off call against absoluteURL. It ignores Config
// except for the timeout and does not log failures.
func (c *Client) ExecuteRaw(ctx context.Context, absoluteURL string, opts RawOptions) domain.Outcome {
	wire, err := buildRawRequest(absoluteURL, opts)
	if err != nil {
		out := domain.Fail(domain.KindInvalidRequest, 0, err.Error())
		c.record(opts.Method, out, 0)
		return out
	}
	out, _ := c.roundTrip(ctx, wire)
	return out
}

func (c *Client) roundTrip(ctx context.Context, wire WireRequest) (domain.Outcome, []byte) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	resp, err := c.doer.Do(ctx, wire)
	out := Classify(resp, err)
	c.record(wire.Method, out, time.Since(start))

	var body []byte
	if resp != nil {
		body = resp.Body()
	}
	return out, body
}

func (c *Client) record(method domain.Method, out domain.Outcome, elapsed time.Duration) {
	if c.observe == nil {
		return
	}
	c.observe(string(method), out.Kind(), elapsed)
}

func (c *Client) logFailure(method domain.Method, target string, out domain.Outcome, body []byte) {
	if out.Failure == nil {
		return
	}
	fields := map[string]any{
		"method":  string(method),
		"url":     target,
		"kind":    string(out.Failure.Kind),
		"message": out.Failure.Message,
	}
	if out.Failure.StatusCode > 0 {
		fields["status"] = out.Failure.StatusCode
	}
	if out.Failure.Kind == domain.KindDecodeError || out.Failure.Kind == domain.KindHTTPError {
		if title := htmlTitle(body); title != "" {
			fields["html_title"] = title
		}
	}
	c.log.ErrorObj("api request failed", "request_failure", fields)
}
