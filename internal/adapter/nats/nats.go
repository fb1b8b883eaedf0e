// Package nats mirrors state snapshots to a NATS subject so off-box
// observers can follow the dashboard without an inbound connection.
//
// Core NATS (not JetStream) on purpose: snapshots are ephemeral
// most-recent-wins frames, and persisting or redelivering stale ones
// would contradict the delivery contract.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

// frame matches the SSE wire envelope so NATS observers can share the
// client-side decoding path.
type frame struct {
	Type string                `json:"type"`
	Data *dashboard.AgentState `json:"data"`
}

// Mirror implements the broadcast port over a NATS connection.
type Mirror struct {
	nc      *nats.Conn
	subject string
}

// Connect establishes the NATS connection used for mirroring.
func Connect(url, subject string) (*Mirror, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	slog.Info("nats mirror connected", "url", url, "subject", subject)
	return &Mirror{nc: nc, subject: subject}, nil
}

// BroadcastState publishes the snapshot. Failures are logged and
// swallowed; the mirror is best-effort like every other sink.
func (m *Mirror) BroadcastState(_ context.Context, state *dashboard.AgentState) {
	data, err := json.Marshal(frame{Type: "state", Data: state})
	if err != nil {
		slog.Error("nats snapshot marshal failed", "error", err)
		return
	}
	if err := m.nc.Publish(m.subject, data); err != nil {
		slog.Debug("nats publish failed", "subject", m.subject, "error", err)
	}
}

// CloseAll flushes pending frames. The mirror holds no per-observer
// channels (observers run their own NATS subscriptions), and the
// connection itself outlives session boundaries.
func (m *Mirror) CloseAll(_ context.Context) {
	if err := m.nc.Flush(); err != nil {
		slog.Debug("nats flush failed", "error", err)
	}
}

// Close shuts the connection down at process exit.
func (m *Mirror) Close() {
	if err := m.nc.Drain(); err != nil {
		m.nc.Close()
	}
}
