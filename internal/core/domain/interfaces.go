package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserStore handles the persistent identity roster.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	// ListUsers returns every user except excludeID, for the sidebar.
	ListUsers(ctx context.Context, excludeID string) ([]User, error)
	CreateUser(ctx context.Context, u *User) error
}

// GroupStore handles group lifecycle and business-level membership.
type GroupStore interface {
	CreateGroup(ctx context.Context, g *Group) error
	GetGroupByID(ctx context.Context, id uuid.UUID) (*Group, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]Group, error)
	IsMember(ctx context.Context, id uuid.UUID, userID string) (bool, error)
	// RemoveMember returns the member count after removal.
	RemoveMember(ctx context.Context, id uuid.UUID, userID string) (int, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error
}

// MessageStore handles message persistence. Inserts must be durable before
// they return: the delivery path emits nothing until the store confirms.
type MessageStore interface {
	InsertMessage(ctx context.Context, m *Message) error
	// DirectHistory returns all messages between a and b, either direction,
	// ordered by creation time ascending.
	DirectHistory(ctx context.Context, a, b string) ([]Message, error)
	// GroupHistory returns all messages for a group, ordered by creation
	// time ascending.
	GroupHistory(ctx context.Context, groupID uuid.UUID) ([]Message, error)
}
