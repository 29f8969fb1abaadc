package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/voidlock/gaffer/internal/domain"
)

// EventSource is the subscription side of the event bus.
type EventSource interface {
	Subscribe(name string) <-chan domain.Event
	Unsubscribe(ch <-chan domain.Event)
}

// SSEHub bridges the in-process event bus to Server-Sent Events
// clients. Each connection gets its own bus subscription, so a slow
// browser drops its own events and never stalls the engine or other
// clients.
type SSEHub struct {
	source EventSource
	logger domain.Logger
}

// NewSSEHub creates a hub over the given event source.
func NewSSEHub(source EventSource, logger domain.Logger) *SSEHub {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &SSEHub{source: source, logger: logger}
}

// ServeHTTP streams events until the client disconnects.
func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment confirms the stream is open before any event.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	sub := h.source.Subscribe(r.RemoteAddr)
	defer h.source.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				h.logger.Debug("", "sse", fmt.Sprintf("client %s gone: %v", r.RemoteAddr, err))
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE emits one event in SSE wire format, using the engine event
// type as the SSE event name.
func writeSSE(w http.ResponseWriter, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data)
	return err
}
