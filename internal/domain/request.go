package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain contains core models shared by the request client, the listener and the harness.

// Method is an HTTP verb supported by the request client.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Methods lists the supported verbs in menu order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

var ErrInvalidDescriptor = errors.New("invalid request descriptor")

// ParseMethod normalizes raw into a supported Method.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unsupported method %q", ErrInvalidDescriptor, raw)
	}
	return m, nil
}

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// AllowsBody reports whether a JSON payload may accompany the verb.
func (m Method) AllowsBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// RequestDescriptor is one outbound call. Path is relative to the configured
// base URL unless it already is an absolute http(s) URL.
type RequestDescriptor struct {
	Method Method            `json:"method" yaml:"method"`
	Path   string            `json:"path" yaml:"path"`
	Body   any               `json:"body,omitempty" yaml:"body,omitempty"`
	Query  map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
}

// NewDescriptor builds a validated descriptor.
func NewDescriptor(method Method, path string, body any, query map[string]string) (RequestDescriptor, error) {
	d := RequestDescriptor{
		Method: method,
		Path:   strings.TrimSpace(path),
		Body:   body,
		Query:  query,
	}
	if err := d.Validate(); err != nil {
		return RequestDescriptor{}, err
	}
	return d, nil
}

// Validate checks the method/body/query invariants.
func (d RequestDescriptor) Validate() error {
	if !d.Method.Valid() {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidDescriptor, d.Method)
	}
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidDescriptor)
	}
	if d.Body != nil && !d.Method.AllowsBody() {
		return fmt.Errorf("%w: %s requests cannot carry a body", ErrInvalidDescriptor, d.Method)
	}
	if len(d.Query) > 0 && d.Method != MethodGet {
		return fmt.Errorf("%w: query params are only supported on GET", ErrInvalidDescriptor)
	}
	return nil
}
