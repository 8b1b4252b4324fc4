package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/service"
)

const keepAliveInterval = 15 * time.Second

type SSEHandler struct {
	broadcaster *service.Broadcaster
}

func NewSSEHandler(broadcaster *service.Broadcaster) *SSEHandler {
	return &SSEHandler{broadcaster: broadcaster}
}

// sseWrite writes one SSE frame with a JSON payload.
func sseWrite(w http.ResponseWriter, ev service.Event) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		logger.Error.Printf("sse: marshal %s event: %v", ev.Type, err)
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment so proxies keep the connection open.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, ch := h.broadcaster.Subscribe()
		defer h.broadcaster.Unsubscribe(id)

		sseWrite(w, service.Event{
			Type: "connected",
			Data: service.ConnectedData{ConnectionID: id, Timestamp: time.Now()},
		})

		ctx := r.Context()
		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case ev, ok := <-ch:
				if !ok {
					// Dropped by the broadcaster for falling behind.
					return
				}
				sseWrite(w, ev)
			}
		}
	}
}
