package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the Doer interface.
type RestyClient struct {
	client *resty.Client
}

// RestyOption tweaks the underlying resty.Client.
type RestyOption func(*resty.Client)

// WithTransport swaps the round tripper, typically for a stub in tests.
func WithTransport(rt http.RoundTripper) RestyOption {
	return func(c *resty.Client) {
		if rt != nil {
			c.SetTransport(rt)
		}
	}
}

// WithRestyLogger routes resty's own warnings into the application logger.
func WithRestyLogger(l resty.Logger) RestyOption {
	return func(c *resty.Client) {
		if l != nil {
			c.SetLogger(l)
		}
	}
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration, opts ...RestyOption) *RestyClient {
	c := newRestyBaseClient(timeout)
	for _, opt := range opts {
		opt(c)
	}
	return &RestyClient{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Do executes the wire request as-is; headers and body are never altered here.
func (r *RestyClient) Do(ctx context.Context, w WireRequest) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(w.Headers) > 0 {
		req.SetHeaders(w.Headers)
	}
	if len(w.Query) > 0 {
		req.SetQueryParams(w.Query)
	}
	if len(w.Body) > 0 {
		req.SetBody(w.Body)
	}
	resp, err := req.Execute(string(w.Method), w.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
