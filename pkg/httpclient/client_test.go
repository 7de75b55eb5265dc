package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport answers every request with a fixed response.
type stubTransport struct {
	mu     sync.Mutex
	status int
	body   string
	calls  int
	last   *http.Request
}

func (s *stubTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.calls++
	s.last = r
	s.mu.Unlock()
	return &http.Response{
		StatusCode: s.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Request:    r,
	}, nil
}

// hangingTransport never answers; it only returns once the request is cancelled.
type hangingTransport struct{}

func (hangingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	<-r.Context().Done()
	return nil, r.Context().Err()
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (l *recordingLogger) ErrorObj(_ string, _ string, obj interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := obj.(map[string]any); ok {
		l.entries = append(l.entries, m)
	}
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func newStubClient(cfg Config, rt http.RoundTripper, log Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return New(cfg,
		WithDoer(NewRestyClient(cfg.Timeout, WithTransport(rt))),
		WithLogger(log),
	)
}

func TestExecuteInjectsBearerForBodyMethods(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	for _, token := range []string{"secret-token", ""} {
		client := New(Config{BaseURL: srv.URL, AuthToken: token, Timeout: 2 * time.Second})
		for _, m := range []domain.Method{domain.MethodPost, domain.MethodPut, domain.MethodPatch} {
			d, err := domain.NewDescriptor(m, "/items", map[string]any{"name": "x"}, nil)
			require.NoError(t, err)
			out := client.Execute(context.Background(), d)
			require.True(t, out.OK(), "outcome %+v", out)
		}
	}

	require.Len(t, headers, 6)
	for i, h := range headers {
		assert.Equal(t, "application/json", h.Get("Content-Type"))
		if i < 3 {
			assert.Equal(t, "Bearer secret-token", h.Get("Authorization"))
		} else {
			assert.Empty(t, h.Values("Authorization"))
		}
	}
}

func TestExecuteSendsJSONBodyAndQuery(t *testing.T) {
	var gotBody map[string]any
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &gotBody)
			}
		}
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/api", Timeout: time.Second})

	out := client.Execute(context.Background(), domain.RequestDescriptor{
		Method: domain.MethodPost, Path: "/users", Body: map[string]any{"name": "ada"},
	})
	require.True(t, out.OK())
	assert.Equal(t, "ada", gotBody["name"])
	assert.Equal(t, map[string]any{"id": 7.0}, out.Body)

	out = client.Execute(context.Background(), domain.RequestDescriptor{
		Method: domain.MethodGet, Path: "/users", Query: map[string]string{"page": "2"},
	})
	require.True(t, out.OK())
	assert.Equal(t, "page=2", gotQuery)
}

func TestExecuteIsIdempotentWithStubbedTransport(t *testing.T) {
	rt := &stubTransport{status: 200, body: `{"items":[1,2,3]}`}
	client := newStubClient(Config{BaseURL: "https://api.example.com"}, rt, nil)
	d := domain.RequestDescriptor{Method: domain.MethodGet, Path: "/items"}

	first := client.Execute(context.Background(), d)
	second := client.Execute(context.Background(), d)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, rt.calls)
	assert.Equal(t, "https://api.example.com/items", rt.last.URL.String())
}

func TestExecuteHTTPErrorIsLoggedAndReturned(t *testing.T) {
	rt := &stubTransport{status: http.StatusNotFound, body: `{"error":"not found"}`}
	log := &recordingLogger{}
	client := newStubClient(Config{BaseURL: "https://api.example.com"}, rt, log)

	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/missing"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindHTTPError, out.Failure.Kind)
	assert.Equal(t, 404, out.Failure.StatusCode)
	assert.Contains(t, out.Failure.Message, "not found")

	require.Equal(t, 1, log.count())
	entry := log.entries[0]
	assert.Equal(t, 404, entry["status"])
	assert.Equal(t, "http_error", entry["kind"])
	assert.Equal(t, "https://api.example.com/missing", entry["url"])
}

func TestExecuteHTTPErrorWithoutBodyUsesStatusText(t *testing.T) {
	rt := &stubTransport{status: http.StatusServiceUnavailable}
	client := newStubClient(Config{BaseURL: "https://api.example.com"}, rt, nil)

	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodDelete, Path: "/x"})
	require.NotNil(t, out.Failure)
	assert.Equal(t, "Service Unavailable", out.Failure.Message)
}

func TestExecuteTimeoutDoesNotHang(t *testing.T) {
	timeout := 50 * time.Millisecond
	client := newStubClient(Config{BaseURL: "https://api.example.com", Timeout: timeout}, hangingTransport{}, nil)

	start := time.Now()
	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/slow"})
	elapsed := time.Since(start)

	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindTimeout, out.Failure.Kind)
	assert.Equal(t, 0, out.Failure.StatusCode)
	assert.Equal(t, "request timed out", out.Failure.Message)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestExecuteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	log := &recordingLogger{}
	client := New(Config{BaseURL: addr, Timeout: time.Second}, WithLogger(log))
	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindNetworkError, out.Failure.Kind)
	assert.NotEmpty(t, out.Failure.Message)
	assert.Equal(t, 1, log.count())
}

func TestExecuteDecodeErrorCarriesSnippetAndHTMLTitle(t *testing.T) {
	page := `<html><head><title>Proxy Login</title></head><body>sign in</body></html>`
	rt := &stubTransport{status: 200, body: page}
	log := &recordingLogger{}
	client := newStubClient(Config{BaseURL: "https://api.example.com"}, rt, log)

	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindDecodeError, out.Failure.Kind)
	assert.Equal(t, 200, out.Failure.StatusCode)
	assert.Contains(t, out.Failure.Message, "Proxy Login")
	require.Equal(t, 1, log.count())
	assert.Equal(t, "Proxy Login", log.entries[0]["html_title"])
}

func TestExecuteEmptyBodySucceeds(t *testing.T) {
	rt := &stubTransport{status: http.StatusNoContent}
	log := &recordingLogger{}
	client := newStubClient(Config{BaseURL: "https://api.example.com"}, rt, log)

	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodDelete, Path: "/items/1"})
	assert.True(t, out.OK())
	assert.Nil(t, out.Body)
	assert.Equal(t, 0, log.count())
}

func TestExecuteInvalidRequests(t *testing.T) {
	rt := &stubTransport{status: 200, body: `{}`}
	client := newStubClient(Config{}, rt, nil)

	out := client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/relative"})
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindInvalidRequest, out.Failure.Kind)

	out = client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "https://other.example.com/ping"})
	assert.True(t, out.OK())

	out = client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/x", Body: "nope"})
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindInvalidRequest, out.Failure.Kind)
	assert.Equal(t, 1, rt.calls)
}

func TestExecuteRawBypassesConfig(t *testing.T) {
	rt := &stubTransport{status: http.StatusBadRequest, body: `{"error":"bad"}`}
	log := &recordingLogger{}
	client := newStubClient(Config{BaseURL: "https://api.example.com", AuthToken: "secret"}, rt, log)

	out := client.ExecuteRaw(context.Background(), "https://hooks.example.com/raw", RawOptions{
		Method:  domain.MethodPost,
		Body:    map[string]any{"a": 1},
		Headers: map[string]string{"X-Custom": "1"},
	})

	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindHTTPError, out.Failure.Kind)
	assert.Equal(t, "https://hooks.example.com/raw", rt.last.URL.String())
	assert.Empty(t, rt.last.Header.Get("Authorization"))
	assert.Equal(t, "1", rt.last.Header.Get("X-Custom"))
	assert.Equal(t, "application/json", rt.last.Header.Get("Content-Type"))
	assert.Equal(t, 0, log.count())

	out = client.ExecuteRaw(context.Background(), "/not-absolute", RawOptions{})
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindInvalidRequest, out.Failure.Kind)
}

func TestExecuteRawSharesTimeout(t *testing.T) {
	client := newStubClient(Config{Timeout: 30 * time.Millisecond}, hangingTransport{}, nil)
	out := client.ExecuteRaw(context.Background(), "https://hooks.example.com/slow", RawOptions{})
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindTimeout, out.Failure.Kind)
}

func TestObserverSeesEveryCall(t *testing.T) {
	rt := &stubTransport{status: 500, body: "boom"}
	var kinds []string
	client := New(Config{BaseURL: "https://api.example.com", Timeout: time.Second},
		WithDoer(NewRestyClient(time.Second, WithTransport(rt))),
		WithObserver(func(method, outcome string, _ time.Duration) {
			kinds = append(kinds, method+":"+outcome)
		}),
	)

	client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet, Path: "/"})
	client.Execute(context.Background(), domain.RequestDescriptor{Method: domain.MethodGet})

	assert.Equal(t, []string{"GET:http_error", "GET:invalid_request"}, kinds)
}
