// Package shutdown coordinates bounded teardown of the harness components.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/apiprobe/internal/logger"
	"github.com/samvad-hq/apiprobe/internal/metrics"
)

// DefaultTimeout bounds the whole teardown when none is configured.
const DefaultTimeout = 10 * time.Second

// Func shuts down a single component.
type Func func(context.Context) error

type component struct {
	name string
	fn   Func
}

// Manager runs registered components in reverse registration order, once.
type Manager struct {
	mu         sync.Mutex
	components []component
	timeout    time.Duration
	log        logger.Logger
	once       sync.Once
	err        error
}

// NewManager creates a manager whose Shutdown is bounded by timeout.
func NewManager(log logger.Logger, timeout time.Duration) *Manager {
	if log == nil {
		log = logger.NopLogger{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{log: log, timeout: timeout}
}

// Register adds a component. Later registrations shut down first.
func (m *Manager) Register(name string, fn Func) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.components = append(m.components, component{name: name, fn: fn})
	m.mu.Unlock()

	m.log.DebugObj("registered shutdown component", "shutdown", map[string]any{"component": name})
}

// Shutdown runs every component at most once. Subsequent calls return the
// first call's result without re-running anything.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		m.err = m.run()
	})
	return m.err
}

func (m *Manager) run() error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := runOne(ctx, c); err != nil {
			m.log.ErrorObj("component shutdown failed", "shutdown", map[string]any{
				"component": c.name,
				"error":     err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		m.log.DebugObj("component shut down", "shutdown", map[string]any{"component": c.name})
	}

	elapsed := time.Since(start)
	metrics.ObserveShutdown(elapsed)
	m.log.InfoObj("shutdown complete", "shutdown", map[string]any{
		"components": len(components),
		"errors":     len(errs),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	return errors.Join(errs...)
}

// runOne returns when fn does or when ctx expires, whichever is first.
func runOne(ctx context.Context, c component) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- c.fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
