// Package ws implements the WebSocket broadcast adapter.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

// connBuffer bounds frames queued per connection. A stalled peer keeps
// only the most recent frames; older ones are dropped.
const connBuffer = 16

// SnapshotSource yields the current state for newly connected clients.
type SnapshotSource interface {
	Snapshot() *dashboard.AgentState
}

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection with its send queue.
type conn struct {
	id     string
	ws     *websocket.Conn
	ch     chan []byte
	cancel context.CancelFunc
}

// Hub manages all active WebSocket connections and broadcasts state
// snapshots to them.
type Hub struct {
	source SnapshotSource

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates a WebSocket hub reading initial snapshots from source.
func NewHub(source SnapshotSource) *Hub {
	return &Hub{
		source: source,
		conns:  make(map[*conn]struct{}),
	}
}

// HandleWS upgrades the request and serves state snapshots until the
// peer disconnects or the session shuts down. The current snapshot is
// delivered first.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{
		id:     uuid.NewString(),
		ws:     sock,
		ch:     make(chan []byte, connBuffer),
		cancel: cancel,
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	// Snapshot after registration: a broadcast landing in between is
	// already queued, and this read can only observe it or newer, so the
	// stream never regresses and never misses a mutation.
	if data, err := marshalState(h.source.Snapshot()); err == nil {
		c.send(data)
	} else {
		slog.Error("websocket snapshot marshal failed", "error", err)
	}

	slog.Info("websocket connected", "conn", c.id, "remote", r.RemoteAddr)

	// Writer: drains the send queue. A write failure evicts this
	// connection only.
	go func() {
		defer func() {
			h.remove(c)
			_ = sock.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-c.ch:
				if err := sock.Write(ctx, websocket.MessageText, data); err != nil {
					slog.Debug("websocket write failed", "conn", c.id, "error", err)
					return
				}
			}
		}
	}()

	// Reader: consumes pings and detects disconnects.
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := sock.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// BroadcastState queues the snapshot for every connection. A connection
// whose buffer is full loses its oldest queued frame, never the newest.
func (h *Hub) BroadcastState(ctx context.Context, state *dashboard.AgentState) {
	data, err := marshalState(state)
	if err != nil {
		slog.Error("websocket snapshot marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		c.send(data)
	}
}

// CloseAll disconnects every peer, e.g. at session shutdown.
func (h *Hub) CloseAll(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.cancel()
		_ = c.ws.Close(websocket.StatusGoingAway, "session shutdown")
		delete(h.conns, c)
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "conn", c.id)
	}
}

// send queues data without ever blocking the broadcaster; see connBuffer.
func (c *conn) send(data []byte) {
	for {
		select {
		case c.ch <- data:
			return
		default:
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

func marshalState(state *dashboard.AgentState) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: "state", Payload: payload})
}
