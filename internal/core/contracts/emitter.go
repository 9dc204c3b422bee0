package contracts

import (
	"context"

	"github.com/google/uuid"
)

// Emitter is what the delivery coordinator needs from the realtime event bus.
type Emitter interface {
	// EmitToUser reports whether the user had a live connection. A miss is
	// a routing fact, not an error.
	EmitToUser(ctx context.Context, userID, event string, payload any) bool
	EmitToRoom(ctx context.Context, roomID, event string, payload any)
	EmitToAll(ctx context.Context, event string, payload any)
}

// GroupMembership is the narrow business check the bus runs before honoring
// a joinGroup request.
type GroupMembership interface {
	IsMember(ctx context.Context, groupID uuid.UUID, userID string) (bool, error)
}
