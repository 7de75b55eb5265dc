// Package routes serves the example endpoints exposed by the local listener.
package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/apiprobe/internal/domain"
	"github.com/samvad-hq/apiprobe/internal/logger"
	"github.com/samvad-hq/apiprobe/internal/metrics"
	"github.com/samvad-hq/apiprobe/internal/storage"
	"github.com/samvad-hq/apiprobe/pkg/publishers"
)

const (
	maxBodyBytes = 1 << 20
	relayTimeout = 5 * time.Second
)

// Relay forwards received callbacks downstream.
type Relay interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deps are the collaborators the handlers need. Nil fields fall back to no-ops.
type Deps struct {
	Service string
	Inbox   storage.Store
	Relay   Relay
	Log     logger.Logger
	Now     func() time.Time
	NewID   func() string
}

type handlers struct {
	Deps
}

// New builds the listener mux.
func New(d Deps) http.Handler {
	if d.Inbox == nil {
		d.Inbox, _ = storage.NewStore("none", "", storage.Options{})
	}
	if d.Log == nil {
		d.Log = logger.NopLogger{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	h := &handlers{Deps: d}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /webhook", h.webhook)
	mux.HandleFunc("POST /webhook/{name...}", h.webhook)
	mux.HandleFunc("GET /webhooks", h.listWebhooks)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": h.Service,
		"time":    h.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	var body any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	cb := domain.Callback{
		ID:         h.NewID(),
		Method:     r.Method,
		Path:       r.URL.Path,
		Headers:    flattenHeaders(r.Header),
		Body:       body,
		ReceivedAt: h.Now().UTC(),
	}
	metrics.ObserveCallback(r.Pattern)

	if err := h.Inbox.SaveCallback(cb); err != nil {
		h.Log.ErrorObj("store callback failed", "callback_store_error", map[string]any{
			"id":    cb.ID,
			"error": err.Error(),
		})
	}
	h.relay(r.Context(), cb)

	h.Log.InfoObj("callback received", "callback", map[string]any{
		"id":   cb.ID,
		"path": cb.Path,
	})
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "id": cb.ID})
}

// relay never fails the inbound request.
func (h *handlers) relay(ctx context.Context, cb domain.Callback) {
	if h.Relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), relayTimeout)
	defer cancel()

	if _, err := h.Relay.Publish(ctx, publishers.NewEvent(cb)); err != nil {
		h.Log.WarnObj("callback relay failed", "callback_relay_error", map[string]any{
			"id":    cb.ID,
			"error": err.Error(),
		})
	}
}

func (h *handlers) listWebhooks(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := h.Inbox.RecentCallbacks(limit)
	if err != nil {
		h.Log.ErrorObj("list callbacks failed", "callback_list_error", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "inbox unavailable"})
		return
	}
	if items == nil {
		items = []domain.Callback{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"callbacks": items, "count": len(items)})
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
