package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
	"github.com/agentpulse/agentpulse/internal/port/agent"
)

// ChatService admits user-authored messages from observers: it appends
// them to the chat transcript and forwards them to the agent, tagged for
// deferred delivery when the agent is busy.
type ChatService struct {
	states  *StateService
	gateway agent.Gateway
}

// NewChatService creates a ChatService forwarding through gw.
func NewChatService(states *StateService, gw agent.Gateway) *ChatService {
	return &ChatService{states: states, gateway: gw}
}

// Submit validates and admits one message. It returns whether the
// message was queued for later delivery (agent busy) or handed over for
// immediate processing. Rejections mutate no state.
func (c *ChatService) Submit(ctx context.Context, text string) (queued bool, err error) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return false, dashboard.ErrEmptyMessage
	}
	if c.gateway == nil {
		return false, dashboard.ErrAgentNotReady
	}

	// The append and the busy check happen in one critical section, so
	// the queued decision cannot drift from the status the transcript
	// update was broadcast with.
	err = c.states.Update(ctx, func(st *dashboard.AgentState) error {
		if st.SessionStartedAt == nil {
			return dashboard.ErrAgentNotReady
		}
		st.ChatTranscript.Push(dashboard.ChatMessage{
			ID:        dashboard.NewMessageID(),
			Role:      dashboard.RoleUser,
			Text:      msg,
			Timestamp: time.Now(),
		})
		queued = st.Status != dashboard.StatusIdle
		return nil
	})
	if err != nil {
		return false, err
	}

	if err := c.gateway.SendUserMessage(ctx, msg, queued); err != nil {
		// The transcript already shows the message; a broken gateway is
		// the agent's problem to surface, not the observer's.
		slog.Error("forward user message failed", "error", err)
	}
	return queued, nil
}
