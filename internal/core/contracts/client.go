package contracts

import "context"

// Client is the minimal surface the presence registry and room router need
// from a live connection. The event bus exclusively owns the underlying
// transport handle; everything else holds Clients as non-owning references.
type Client interface {
	// ID identifies this connection, not the user. Two connections for the
	// same user have distinct IDs.
	ID() string
	// UserID is the handshake-supplied identifier, empty for connections
	// that arrived without one.
	UserID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
