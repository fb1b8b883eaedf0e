// Package service implements the dashboard's core logic: the state
// store, the lifecycle event reducer, and inbound message admission.
package service

import (
	"context"
	"sync"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
	"github.com/agentpulse/agentpulse/internal/port/broadcast"
)

// StateService owns the singleton AgentState. Every mutation is applied
// under a mutex and followed, still inside the critical section, by a
// snapshot broadcast to all registered sinks, so observers see mutations
// in the order they were applied. Sinks must be non-blocking.
type StateService struct {
	mu    sync.Mutex
	state dashboard.AgentState
	sinks []broadcast.Broadcaster
}

// NewStateService creates a StateService holding an idle zero state.
func NewStateService() *StateService {
	return &StateService{
		state: dashboard.AgentState{Status: dashboard.StatusIdle},
	}
}

// Register adds a snapshot sink. Sinks receive every subsequent
// broadcast; registration order is delivery order.
func (s *StateService) Register(b broadcast.Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, b)
}

// Snapshot returns a deep copy of the current state.
func (s *StateService) Snapshot() *dashboard.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	return &snap
}

// Apply runs fn against the state and broadcasts the result.
func (s *StateService) Apply(ctx context.Context, fn func(*dashboard.AgentState)) {
	_ = s.Update(ctx, func(st *dashboard.AgentState) error {
		fn(st)
		return nil
	})
}

// Update runs fn against the state and broadcasts the result. If fn
// returns an error the update is abandoned and nothing is broadcast; fn
// must not mutate the state before deciding to fail.
func (s *StateService) Update(ctx context.Context, fn func(*dashboard.AgentState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.state); err != nil {
		return err
	}

	snap := s.state
	for _, sink := range s.sinks {
		sink.BroadcastState(ctx, &snap)
	}
	return nil
}

// CloseAll disconnects every observer on every sink.
func (s *StateService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sink := range s.sinks {
		sink.CloseAll(ctx)
	}
}
