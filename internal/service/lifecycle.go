package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
	"github.com/agentpulse/agentpulse/internal/port/endpoint"
)

// unknownTool is the sentinel used when a tool_call event carries no name.
const unknownTool = "unknown"

// LifecycleService reduces agent lifecycle events into state mutations
// and activity log entries. The agent emits events serially, so there is
// one logical writer; the StateService still serializes each event's
// effects against concurrent admission.
type LifecycleService struct {
	states   *StateService
	endpoint endpoint.Publisher
	closed   atomic.Bool

	// ResourceNotice detects structured resource content (skill or
	// prompt files) inside agent text and returns a short notice to
	// store in the chat transcript instead of the raw content.
	ResourceNotice func(text string) (notice string, ok bool)
}

// NewLifecycleService creates a LifecycleService publishing through ep.
func NewLifecycleService(states *StateService, ep endpoint.Publisher) *LifecycleService {
	return &LifecycleService{
		states:         states,
		endpoint:       ep,
		ResourceNotice: DetectResourceNotice,
	}
}

// HandleEvent dispatches one lifecycle event. Unknown event types are
// logged and skipped; events after shutdown are dropped until the next
// session start.
func (l *LifecycleService) HandleEvent(ctx context.Context, ev dashboard.Event) {
	if l.closed.Load() && ev.Type != dashboard.EventSessionStart {
		slog.Debug("event after shutdown dropped", "type", ev.Type)
		return
	}

	switch ev.Type {
	case dashboard.EventSessionStart:
		l.SessionStart(ctx)
	case dashboard.EventSessionShutdown:
		l.SessionShutdown(ctx)
	case dashboard.EventAgentStart:
		l.AgentStart(ctx)
	case dashboard.EventAgentEnd:
		l.AgentEnd(ctx)
	case dashboard.EventTurnStart:
		l.TurnStart(ctx)
	case dashboard.EventTurnEnd:
		l.TurnEnd(ctx, ev.Summary)
	case dashboard.EventToolCall:
		l.ToolCall(ctx, ev.ToolName)
	case dashboard.EventToolResult:
		l.ToolResult(ctx, ev.ResultSummary)
	case dashboard.EventMessageEnd:
		l.MessageEnd(ctx, ev.Message)
	default:
		slog.Debug("unhandled lifecycle event", "type", ev.Type)
	}
}

// SessionStart resets the state, publishes the observer endpoint and
// logs where (or whether) it became reachable.
func (l *LifecycleService) SessionStart(ctx context.Context) {
	l.closed.Store(false)
	now := time.Now()
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.Reset(now)
	})

	url, err := l.endpoint.Publish(ctx)
	text := "Session started: dashboard at " + url
	if err != nil {
		text = "Failed to start dashboard server: " + err.Error()
		slog.Warn("endpoint publish failed", "error", err)
	}
	l.log(ctx, dashboard.CategorySession, text)
}

// SessionShutdown logs the shutdown, disconnects all observers and
// releases the endpoint. Safe to call more than once; no further
// mutations happen until the next SessionStart.
func (l *LifecycleService) SessionShutdown(ctx context.Context) {
	if l.closed.Swap(true) {
		return
	}
	l.log(ctx, dashboard.CategorySession, "Session shutting down")
	l.states.CloseAll(ctx)
	if err := l.endpoint.Release(ctx); err != nil {
		slog.Warn("endpoint release failed", "error", err)
	}
}

// AgentStart marks the agent as thinking.
func (l *LifecycleService) AgentStart(ctx context.Context) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.Status = dashboard.StatusThinking
		push(st, dashboard.CategoryAgent, "Agent started processing")
	})
}

// AgentEnd marks the agent as idle and clears any active tool.
func (l *LifecycleService) AgentEnd(ctx context.Context) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.Status = dashboard.StatusIdle
		st.ActiveTool = ""
		push(st, dashboard.CategoryAgent, "Agent finished processing")
	})
}

// TurnStart increments the turn counter.
func (l *LifecycleService) TurnStart(ctx context.Context) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.TurnCount++
		push(st, dashboard.CategoryTurn, fmt.Sprintf("Turn %d started", st.TurnCount))
	})
}

// TurnEnd logs the caller's summary, or a default one when absent.
func (l *LifecycleService) TurnEnd(ctx context.Context, summary string) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		if summary == "" {
			summary = fmt.Sprintf("Turn %d completed", st.TurnCount)
		}
		push(st, dashboard.CategoryTurn, summary)
	})
}

// ToolCall marks the agent as executing the named tool.
func (l *LifecycleService) ToolCall(ctx context.Context, toolName string) {
	if toolName == "" {
		toolName = unknownTool
	}
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.Status = dashboard.StatusExecutingTool
		st.ActiveTool = toolName
		push(st, dashboard.CategoryTool, "Calling tool: "+toolName)
	})
}

// ToolResult returns the agent to thinking: control goes back to the
// reasoning loop, not to idle.
func (l *LifecycleService) ToolResult(ctx context.Context, resultSummary string) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		if resultSummary == "" {
			tool := st.ActiveTool
			if tool == "" {
				tool = unknownTool
			}
			resultSummary = tool + " completed"
		}
		st.Status = dashboard.StatusThinking
		st.ActiveTool = ""
		push(st, dashboard.CategoryTool, resultSummary)
	})
}

// MessageEnd logs a preview of the message text and, for agent-authored
// messages, appends the text to the chat transcript. User messages reach
// the transcript through admission instead, never here.
func (l *LifecycleService) MessageEnd(ctx context.Context, msg *dashboard.Message) {
	if msg == nil {
		return
	}
	text := msg.Text()
	preview := dashboard.Preview(text, dashboard.PreviewLength)

	chatText := ""
	if msg.Role != dashboard.RoleUser && strings.TrimSpace(text) != "" {
		chatText = text
		if notice, ok := l.ResourceNotice(text); ok {
			chatText = notice
		}
	}
	if preview == "" && chatText == "" {
		return
	}

	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		if preview != "" {
			push(st, dashboard.CategoryMessage, preview)
		}
		if chatText != "" {
			st.ChatTranscript.Push(dashboard.ChatMessage{
				ID:        dashboard.NewMessageID(),
				Role:      dashboard.RoleAgent,
				Text:      chatText,
				Timestamp: time.Now(),
			})
		}
	})
}

// Announce sets the free-form status line. This is the only mutation
// not driven by a lifecycle event, and it obeys the same shutdown gate:
// the MCP server outlives the dashboard endpoint, so a late set_status
// must not mutate a closed session.
func (l *LifecycleService) Announce(ctx context.Context, status string) {
	if l.closed.Load() {
		slog.Debug("status announce after shutdown dropped")
		return
	}
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		st.CustomStatus = status
	})
}

func (l *LifecycleService) log(ctx context.Context, cat dashboard.Category, text string) {
	l.states.Apply(ctx, func(st *dashboard.AgentState) {
		push(st, cat, text)
	})
}

func push(st *dashboard.AgentState, cat dashboard.Category, text string) {
	st.ActivityLog.Push(dashboard.ActivityEntry{
		Timestamp: time.Now(),
		Category:  cat,
		Text:      text,
	})
}
