package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

const maxSnippetBytes = 512

const timeoutMessage = "request timed out"

// Classify maps a transport result onto an Outcome. It has no side effects.
func Classify(resp Response, err error) domain.Outcome {
	if err != nil {
		if isTimeout(err) {
			return domain.Fail(domain.KindTimeout, 0, timeoutMessage)
		}
		return domain.Fail(domain.KindNetworkError, 0, err.Error())
	}
	if resp == nil {
		return domain.Fail(domain.KindNetworkError, 0, "no response received")
	}

	status := resp.StatusCode()
	body := resp.Body()

	if status < 200 || status > 299 {
		msg := BodySnippet(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", status)
		}
		return domain.Fail(domain.KindHTTPError, status, msg)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Success(status, nil)
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.Fail(domain.KindDecodeError, status, BodySnippet(body))
	}
	return domain.Success(status, decoded)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// BodySnippet trims body and caps it for error messages and logs.
func BodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}
