package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

// ParseBody decodes a JSON payload typed by the user. Blank input means no body.
func ParseBody(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("%w: body is not valid JSON: %v", domain.ErrInvalidDescriptor, err)
	}
	return body, nil
}

// ParseQuery turns k=v pairs into a query map. Pairs may also be joined by
// '&' or ',' in a single entry.
func ParseQuery(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, entry := range pairs {
		for _, pair := range strings.FieldsFunc(entry, func(r rune) bool { return r == '&' || r == ',' }) {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			k, v, ok := strings.Cut(pair, "=")
			k = strings.TrimSpace(k)
			if !ok || k == "" {
				return nil, fmt.Errorf("%w: query param %q must be key=value", domain.ErrInvalidDescriptor, pair)
			}
			out[k] = strings.TrimSpace(v)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// BuildDescriptor assembles a validated descriptor from raw user input.
func BuildDescriptor(method, path, body string, query []string) (domain.RequestDescriptor, error) {
	m, err := domain.ParseMethod(method)
	if err != nil {
		return domain.RequestDescriptor{}, err
	}
	b, err := ParseBody(body)
	if err != nil {
		return domain.RequestDescriptor{}, err
	}
	q, err := ParseQuery(query)
	if err != nil {
		return domain.RequestDescriptor{}, err
	}
	return domain.NewDescriptor(m, path, b, q)
}

// FormatOutcome renders an outcome for the terminal.
func FormatOutcome(out domain.Outcome) string {
	if !out.OK() {
		f := out.Failure
		if f.StatusCode > 0 {
			return fmt.Sprintf("FAILED %s (status %d): %s", f.Kind, f.StatusCode, f.Message)
		}
		return fmt.Sprintf("FAILED %s: %s", f.Kind, f.Message)
	}
	if out.Body == nil {
		return fmt.Sprintf("OK %d (no content)", out.StatusCode)
	}
	pretty, err := json.MarshalIndent(out.Body, "", "  ")
	if err != nil {
		return fmt.Sprintf("OK %d %v", out.StatusCode, out.Body)
	}
	return fmt.Sprintf("OK %d\n%s", out.StatusCode, pretty)
}

// FormatStatus renders harness status for the terminal.
func FormatStatus(s Status) string {
	var b strings.Builder
	base := s.BaseURL
	if base == "" {
		base = "(not set)"
	}
	fmt.Fprintf(&b, "base url:  %s\n", base)
	if s.Running {
		fmt.Fprintf(&b, "listener:  running on port %d (up %s)\n", s.Port, s.Uptime.Truncate(time.Second))
	} else {
		fmt.Fprintf(&b, "listener:  stopped\n")
	}
	fmt.Fprintf(&b, "presets:   %d\n", s.Presets)
	fmt.Fprintf(&b, "relays:    %d", s.Relays)
	return b.String()
}

// FormatCallbacks renders received callbacks newest first.
func FormatCallbacks(cbs []domain.Callback) string {
	if len(cbs) == 0 {
		return "no callbacks received"
	}
	var b strings.Builder
	for i, cb := range cbs {
		if i > 0 {
			b.WriteString("\n")
		}
		body, _ := json.Marshal(cb.Body)
		fmt.Fprintf(&b, "%s  %s %s  id=%s  %s", cb.ReceivedAt.Format(time.RFC3339), cb.Method, cb.Path, cb.ID, body)
	}
	return b.String()
}
