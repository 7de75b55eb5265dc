package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/samvad-hq/apiprobe/internal/logger"
	"github.com/samvad-hq/apiprobe/internal/metrics"
)

// Result reports what a Start or Stop call did. AlreadyRunning and NotRunning
// are benign no-ops, not errors.
type Result string

const (
	Started        Result = "started"
	AlreadyRunning Result = "already_running"
	Stopped        Result = "stopped"
	NotRunning     Result = "not_running"
)

const defaultShutdownTimeout = 5 * time.Second

// ErrBind is returned by Start when the port could not be acquired.
var ErrBind = errors.New("listener bind failed")

// Controller owns zero or one running listener. All transitions happen under
// mu, so Start, Stop and Cleanup never interleave.
type Controller struct {
	mu              sync.Mutex
	handle          Handle
	host            string
	port            int
	bind            Binder
	shutdownTimeout time.Duration
	startedAt       time.Time
	log             logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithBinder replaces the default binder.
func WithBinder(b Binder) Option {
	return func(c *Controller) {
		if b != nil {
			c.bind = b
		}
	}
}

// WithHost restricts the bind address (default: all interfaces).
func WithHost(host string) Option {
	return func(c *Controller) { c.host = host }
}

// WithShutdownTimeout bounds Stop and Cleanup.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithLogger sets the transition logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController builds a stopped controller for port. Without WithBinder it
// needs a Binder from the caller, usually HTTPBinder(routes).
func NewController(port int, opts ...Option) *Controller {
	c := &Controller{
		port:            port,
		shutdownTimeout: defaultShutdownTimeout,
		log:             logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start binds the listener if it is not already running.
func (c *Controller) Start(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		metrics.ObserveListenerTransition(string(AlreadyRunning))
		c.log.InfoObj("listener already running", "listener", map[string]any{"port": c.handle.Port()})
		return AlreadyRunning, nil
	}
	if c.bind == nil {
		return NotRunning, fmt.Errorf("%w: no binder configured", ErrBind)
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	h, err := c.bind(ctx, addr)
	if err != nil {
		metrics.ObserveListenerTransition("bind_error")
		c.log.ErrorObj("listener bind failed", "listener_error", map[string]any{
			"addr":  addr,
			"error": err.Error(),
		})
		return NotRunning, fmt.Errorf("%w on %s: %v", ErrBind, addr, err)
	}

	c.handle = h
	c.startedAt = time.Now()
	metrics.SetListenerRunning(true)
	metrics.ObserveListenerTransition(string(Started))
	c.log.InfoObj("listener started", "listener", map[string]any{"port": h.Port()})
	return Started, nil
}

// Stop gracefully closes the listener if it is running.
func (c *Controller) Stop(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked(ctx)
}

// Cleanup is Stop for termination paths: bounded by the shutdown timeout,
// never panics and never returns an error.
func (c *Controller) Cleanup() {
	defer func() {
		if r := recover(); r != nil {
			c.log.ErrorObj("listener cleanup panicked", "listener_error", map[string]any{"panic": fmt.Sprint(r)})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.stopLocked(ctx); err != nil {
		c.log.ErrorObj("listener cleanup failed", "listener_error", map[string]any{"error": err.Error()})
	}
}

func (c *Controller) stopLocked(ctx context.Context) (Result, error) {
	if c.handle == nil {
		metrics.ObserveListenerTransition(string(NotRunning))
		return NotRunning, nil
	}

	h := c.handle
	port := h.Port()
	// Ownership is dropped before shutting down: the handle is closed at most once.
	c.handle = nil
	c.startedAt = time.Time{}
	metrics.SetListenerRunning(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, c.shutdownTimeout)
	defer cancel()

	var err error
	if serr := h.Shutdown(shutdownCtx); serr != nil {
		c.log.WarnObj("listener graceful shutdown incomplete; forcing close", "listener", map[string]any{
			"port":  port,
			"error": serr.Error(),
		})
		if cerr := h.Close(); cerr != nil {
			err = fmt.Errorf("close listener: %w", errors.Join(serr, cerr))
		}
	}

	metrics.ObserveListenerTransition(string(Stopped))
	c.log.InfoObj("listener stopped", "listener", map[string]any{"port": port})
	return Stopped, err
}

// IsRunning reports whether a listener is bound.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

// Port returns the bound port, or 0 when stopped.
func (c *Controller) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return 0
	}
	return c.handle.Port()
}

// Uptime returns how long the current listener has been running.
func (c *Controller) Uptime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return 0
	}
	return time.Since(c.startedAt)
}
