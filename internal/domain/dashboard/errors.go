package dashboard

import "errors"

// ErrEmptyMessage indicates an inbound message was empty after trimming.
var ErrEmptyMessage = errors.New("empty message")

// ErrAgentNotReady indicates the agent's input channel is not available,
// e.g. before the first session start completes.
var ErrAgentNotReady = errors.New("agent not ready")
