package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	mimeJSON            = "application/json"

	DefaultTimeout = 30 * time.Second
)

var ErrNoBaseURL = errors.New("base url is not configured")

// Config is the process-wide client configuration. It is read once and never
// mutated afterwards.
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// WireRequest is a fully-specified outbound request.
type WireRequest struct {
	Method  domain.Method
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
}

// RawOptions describes a one-off call that bypasses Config.
type RawOptions struct {
	Method  domain.Method
	Body    any
	Query   map[string]string
	Headers map[string]string
}

// BuildRequest turns a descriptor into a wire request: URL resolution, JSON
// headers, bearer auth and body serialization. It has no side effects.
func BuildRequest(cfg Config, d domain.RequestDescriptor) (WireRequest, error) {
	if err := d.Validate(); err != nil {
		return WireRequest{}, err
	}

	target, err := ResolveURL(cfg.BaseURL, d.Path)
	if err != nil {
		return WireRequest{}, err
	}

	body, err := encodeBody(d.Body)
	if err != nil {
		return WireRequest{}, err
	}

	headers := map[string]string{
		headerContentType: mimeJSON,
		headerAccept:      mimeJSON,
	}
	if token := strings.TrimSpace(cfg.AuthToken); token != "" {
		headers[headerAuthorization] = "Bearer " + token
	}

	return WireRequest{
		Method:  d.Method,
		URL:     target,
		Headers: headers,
		Query:   maps.Clone(d.Query),
		Body:    body,
	}, nil
}

// buildRawRequest prepares an ExecuteRaw call: no base URL and no auth.
func buildRawRequest(absoluteURL string, opts RawOptions) (WireRequest, error) {
	method := opts.Method
	if method == "" {
		method = domain.MethodGet
	}
	d := domain.RequestDescriptor{Method: method, Path: absoluteURL, Body: opts.Body, Query: opts.Query}
	if err := d.Validate(); err != nil {
		return WireRequest{}, err
	}
	if !IsAbsoluteURL(absoluteURL) {
		return WireRequest{}, fmt.Errorf("%w: %q is not an absolute http(s) url", domain.ErrInvalidDescriptor, absoluteURL)
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return WireRequest{}, err
	}

	headers := map[string]string{headerAccept: mimeJSON}
	if body != nil {
		headers[headerContentType] = mimeJSON
	}
	for k, v := range opts.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		headers[k] = v
	}

	return WireRequest{
		Method:  method,
		URL:     absoluteURL,
		Headers: headers,
		Query:   maps.Clone(opts.Query),
		Body:    body,
	}, nil
}

// ResolveURL concatenates base and path unless path is already absolute.
func ResolveURL(base, path string) (string, error) {
	if IsAbsoluteURL(path) {
		return path, nil
	}
	if strings.TrimSpace(base) == "" {
		return "", ErrNoBaseURL
	}
	return base + path, nil
}

// IsAbsoluteURL reports whether raw is an http(s) URL with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: body is not valid json", domain.ErrInvalidDescriptor)
		}
		return raw, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", domain.ErrInvalidDescriptor, err)
	}
	return payload, nil
}
