// Package storage keeps the inbox of callbacks received by the local listener.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
)

// Store persists received callbacks.
type Store interface {
	Close() error
	SaveCallback(cb domain.Callback) error
	// RecentCallbacks returns up to limit callbacks, newest first.
	RecentCallbacks(limit int) ([]domain.Callback, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	CallbackTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultCallbackTTL     = 24 * time.Hour
	defaultCleanupInterval = time.Hour
	DefaultListLimit       = 20
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.CallbackTTL <= 0 {
		opts.CallbackTTL = defaultCallbackTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                  { return nil }
func (noopStore) SaveCallback(domain.Callback) error            { return nil }
func (noopStore) RecentCallbacks(int) ([]domain.Callback, error) { return nil, nil }
