package stdio

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// deliverFollowUp tags a message for deferred delivery: the agent holds
// it until it is free to accept new input.
const deliverFollowUp = "followUp"

// userMessageFrame is the outbound frame for admitted user messages.
type userMessageFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	DeliverAs string `json:"deliver_as,omitempty"`
}

// Gateway implements the agent gateway port by writing user-message
// frames to the agent's input pipe.
type Gateway struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewGateway creates a Gateway writing to w.
func NewGateway(w io.Writer) *Gateway {
	return &Gateway{enc: json.NewEncoder(w)}
}

// SendUserMessage writes one frame. Concurrent submissions are
// serialized so frames never interleave on the pipe.
func (g *Gateway) SendUserMessage(_ context.Context, text string, queued bool) error {
	frame := userMessageFrame{Type: "user_message", Text: text}
	if queued {
		frame.DeliverAs = deliverFollowUp
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enc.Encode(frame)
}
