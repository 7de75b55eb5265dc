package domain

import "fmt"

// FailureKind classifies why a request did not produce a usable payload.
type FailureKind string

const (
	KindNetworkError   FailureKind = "network_error"
	KindTimeout        FailureKind = "timeout"
	KindHTTPError      FailureKind = "http_error"
	KindDecodeError    FailureKind = "decode_error"
	KindInvalidRequest FailureKind = "invalid_request"
)

// Failure is the typed error half of an Outcome. StatusCode is 0 when no
// response was received.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	StatusCode int         `json:"status_code,omitempty"`
	Message    string      `json:"message"`
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is the result of executing a RequestDescriptor.
type Outcome struct {
	StatusCode int      `json:"status_code,omitempty"`
	Body       any      `json:"body,omitempty"`
	Failure    *Failure `json:"failure,omitempty"`
}

// Success builds a successful outcome.
func Success(status int, body any) Outcome {
	return Outcome{StatusCode: status, Body: body}
}

// Fail builds a failed outcome.
func Fail(kind FailureKind, status int, msg string) Outcome {
	return Outcome{
		StatusCode: status,
		Failure:    &Failure{Kind: kind, StatusCode: status, Message: msg},
	}
}

// OK reports whether the outcome carries a decoded payload.
func (o Outcome) OK() bool { return o.Failure == nil }

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Kind returns the failure kind, or "ok" for successes.
func (o Outcome) Kind() string {
	if o.Failure == nil {
		return "ok"
	}
	return string(o.Failure.Kind)
}
