package domain

import "time"

// Callback is one inbound webhook captured by the local listener.
type Callback struct {
	ID         string            `json:"id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}
