// Package dashboard defines the live agent status domain model: the
// singleton AgentState snapshot and its two bounded history buffers.
package dashboard

import "time"

// Status represents the macro-state of the agent loop.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusThinking      Status = "thinking"
	StatusExecutingTool Status = "executing_tool"
)

// Category classifies an activity log entry.
type Category string

const (
	CategorySession Category = "session"
	CategoryAgent   Category = "agent"
	CategoryTurn    Category = "turn"
	CategoryTool    Category = "tool"
	CategoryMessage Category = "message"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PreviewLength caps activity log previews of agent message text.
const PreviewLength = 100

// ActivityEntry is one line in the activity log. Immutable once created;
// evicted only by ring-buffer overflow.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"type"`
	Text      string    `json:"text"`
}

// ChatMessage is one message in the chat transcript. Immutable once
// created; evicted only by ring-buffer overflow.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentState is the full dashboard state. One instance exists per running
// session; observers only ever see copies of it. The JSON field names are
// the wire format the browser dashboard consumes.
type AgentState struct {
	Status           Status      `json:"agentStatus"`
	ActiveTool       string      `json:"currentToolName,omitempty"`
	SessionStartedAt *time.Time  `json:"sessionStartTime"`
	TurnCount        int         `json:"turnCount"`
	CustomStatus     string      `json:"customStatus,omitempty"`
	ActivityLog      ActivityLog `json:"activityLog"`
	ChatTranscript   Transcript  `json:"chatMessages"`
}

// Reset returns the state to its zero value for a fresh session.
func (s *AgentState) Reset(now time.Time) {
	*s = AgentState{
		Status:           StatusIdle,
		SessionStartedAt: &now,
	}
}

// Preview truncates s to at most limit runes, appending an ellipsis
// marker when anything was cut.
func Preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
