package listener

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Handle is a bound, accepting network listener exclusively owned by the
// Controller between Start and Stop.
type Handle interface {
	Port() int
	// Shutdown stops accepting and waits for in-flight requests.
	Shutdown(ctx context.Context) error
	// Close drops everything immediately.
	Close() error
}

// Binder binds addr and starts serving. It returns only once the socket is
// accepting connections.
type Binder func(ctx context.Context, addr string) (Handle, error)

// HTTPBinder serves handler on a TCP listener.
func HTTPBinder(handler http.Handler) Binder {
	return func(ctx context.Context, addr string) (Handle, error) {
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}

		h := &httpHandle{
			srv: &http.Server{
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			},
			ln:   ln,
			done: make(chan struct{}),
		}
		go h.serve()
		return h, nil
	}
}

type httpHandle struct {
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

func (h *httpHandle) serve() {
	defer close(h.done)
	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = h.ln.Close()
	}
}

func (h *httpHandle) Port() int {
	if tcp, ok := h.ln.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func (h *httpHandle) Shutdown(ctx context.Context) error {
	if err := h.srv.Shutdown(ctx); err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *httpHandle) Close() error {
	err := h.srv.Close()
	<-h.done
	return err
}
