package publishers

import "context"

// Publisher relays events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Closer is implemented by publishers holding connections that must be released.
type Closer interface {
	Close() error
}
