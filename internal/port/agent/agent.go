// Package agent defines the port for delivering user messages to the
// agent's input handling.
package agent

import "context"

// Gateway forwards user-authored messages to the agent. When queued is
// true the agent must hold the message until it is free to accept new
// input; it must not be dropped or interleaved mid-tool-call.
type Gateway interface {
	SendUserMessage(ctx context.Context, text string, queued bool) error
}
