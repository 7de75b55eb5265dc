package publishers

import (
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

// Event is the payload relayed downstream for every received callback.
type Event struct {
	CallbackID string            `json:"callback_id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body"`
	ReceivedAt time.Time         `json:"received_at"`
	RelayedAt  time.Time         `json:"relayed_at"`
}

// NewEvent constructs an Event for the given callback.
func NewEvent(cb domain.Callback) Event {
	return Event{
		CallbackID: cb.ID,
		Method:     cb.Method,
		Path:       cb.Path,
		Headers:    cb.Headers,
		Body:       cb.Body,
		ReceivedAt: cb.ReceivedAt,
		RelayedAt:  time.Now().UTC(),
	}
}
