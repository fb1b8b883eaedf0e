// Package broadcast defines the port for pushing state snapshots to
// connected observers.
package broadcast

import (
	"context"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
)

// Broadcaster delivers full state snapshots to all connected observers.
// Delivery is best-effort: a sink that cannot be written to is dropped
// silently and must never fail the caller.
type Broadcaster interface {
	// BroadcastState sends the snapshot to every connected observer.
	BroadcastState(ctx context.Context, state *dashboard.AgentState)

	// CloseAll disconnects every observer, e.g. at session shutdown.
	CloseAll(ctx context.Context)
}
