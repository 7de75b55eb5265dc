package httpclient

import (
	"context"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Doer sends a fully-specified wire request. Tests and alternative transports
// implement it; RestyClient is the production one.
type Doer interface {
	Do(ctx context.Context, req WireRequest) (Response, error)
}

// Executor is the request surface the harness depends on.
type Executor interface {
	Execute(ctx context.Context, d domain.RequestDescriptor) domain.Outcome
	ExecuteRaw(ctx context.Context, absoluteURL string, opts RawOptions) domain.Outcome
}

// Logger defines the logging surface the client relies on.
type Logger interface {
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) ErrorObj(string, string, interface{}) {}
