package dashboard

import "strings"

// EventType identifies an agent lifecycle event.
type EventType string

const (
	EventSessionStart    EventType = "session_start"
	EventSessionShutdown EventType = "session_shutdown"
	EventAgentStart      EventType = "agent_start"
	EventAgentEnd        EventType = "agent_end"
	EventTurnStart       EventType = "turn_start"
	EventTurnEnd         EventType = "turn_end"
	EventToolCall        EventType = "tool_call"
	EventToolResult      EventType = "tool_result"
	EventMessageEnd      EventType = "message_end"
)

// Event is one lifecycle event emitted by the agent. Fields beyond Type
// are populated per event kind; missing fields degrade to defaults in
// the reducer rather than failing the event.
type Event struct {
	Type          EventType `json:"type"`
	ToolName      string    `json:"tool_name,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	ResultSummary string    `json:"result_summary,omitempty"`
	Message       *Message  `json:"message,omitempty"`
}

// Message is the payload of a message_end event.
type Message struct {
	Role    Role      `json:"role"`
	Content []Segment `json:"content"`
}

// Segment is one content block of a message. Only text segments carry
// dashboard-relevant content.
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text concatenates the message's text segments.
func (m *Message) Text() string {
	var b strings.Builder
	for _, seg := range m.Content {
		if seg.Type == "text" {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
