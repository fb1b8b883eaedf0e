// Package sse implements the Server-Sent Events broadcast adapter.
//
// Observers reconnect on their own: on stream end a client is expected
// to retry with exponential backoff (about 1s doubling to a 10s cap)
// and gets a fresh full snapshot on resubscribe. There is no sequence
// numbering or replay of missed frames.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

// subscriberBuffer bounds frames queued per subscriber. A stalled
// reader keeps only the most recent frames; older ones are dropped.
const subscriberBuffer = 16

// SnapshotSource yields the current state for newly subscribed clients.
type SnapshotSource interface {
	Snapshot() *dashboard.AgentState
}

// frame is the wire envelope for every SSE message.
type frame struct {
	Type string                `json:"type"`
	Data *dashboard.AgentState `json:"data"`
}

type subscriber struct {
	id string
	ch chan []byte
}

// Hub manages all SSE subscribers and fans state snapshots out to them.
type Hub struct {
	source SnapshotSource

	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	shutdown chan struct{}
}

// NewHub creates an SSE hub reading initial snapshots from source.
func NewHub(source SnapshotSource) *Hub {
	return &Hub{
		source:   source,
		subs:     make(map[*subscriber]struct{}),
		shutdown: make(chan struct{}),
	}
}

// HandleSSE serves one observer's event stream. The current snapshot is
// delivered first, then every subsequent broadcast, until the client
// disconnects or the session shuts down. Subscribing twice yields two
// independent streams.
func (h *Hub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := &subscriber{
		id: uuid.NewString(),
		ch: make(chan []byte, subscriberBuffer),
	}

	// The shutdown channel is captured at subscribe time: it belongs to
	// this session generation and is closed exactly once.
	done := h.shutdownCh()
	h.add(sub)
	defer h.remove(sub)

	// Snapshot after registration: a broadcast landing in between is
	// already queued, and this read can only observe it or newer, so the
	// stream never regresses and never misses a mutation.
	if data, err := marshalFrame(h.source.Snapshot()); err == nil {
		sub.send(data)
	} else {
		slog.Error("sse snapshot marshal failed", "error", err)
	}
	slog.Info("sse subscriber connected", "subscriber", sub.id, "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case data := <-sub.ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// BroadcastState queues the snapshot for every subscriber. A subscriber
// whose buffer is full loses its oldest queued frame, never the newest.
func (h *Hub) BroadcastState(ctx context.Context, state *dashboard.AgentState) {
	data, err := marshalFrame(state)
	if err != nil {
		slog.Error("sse snapshot marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		sub.send(data)
	}
}

// CloseAll ends every subscriber stream.
func (h *Hub) CloseAll(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	h.subs = make(map[*subscriber]struct{})
	h.shutdown = make(chan struct{})
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		slog.Info("sse subscriber disconnected", "subscriber", sub.id)
	}
}

func (h *Hub) shutdownCh() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdown
}

// send queues data without ever blocking the broadcaster: when the
// buffer is full the oldest frame is dropped to make room, so a slow
// reader converges on the latest state.
func (sub *subscriber) send(data []byte) {
	for {
		select {
		case sub.ch <- data:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

func marshalFrame(state *dashboard.AgentState) ([]byte, error) {
	return json.Marshal(frame{Type: "state", Data: state})
}
