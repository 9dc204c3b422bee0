package contracts

import "context"

// StateStorage is the client-side durable key-value store backing unread/read
// state, the localStorage analogue. Get returns "" with a nil error for an
// absent key.
type StateStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
