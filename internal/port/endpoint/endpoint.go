// Package endpoint defines the port for resolving a reachable observer
// endpoint.
package endpoint

import "context"

// Publisher binds a network endpoint observers can connect to. Publish
// returns a reachable URL or an error describing why none could be
// bound; Release frees the bound resource.
type Publisher interface {
	Publish(ctx context.Context) (string, error)
	Release(ctx context.Context) error
}
