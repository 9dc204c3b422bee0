package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the stable identity the HTTP layer resolves before a client ever
// reaches the realtime core. The ID is opaque to every component here.
type User struct {
	ID        string
	FullName  string
	CreatedAt time.Time
}

// Group is a named chat group. Members always includes the admin.
type Group struct {
	ID        uuid.UUID
	Name      string
	AdminID   string
	Members   []string
	CreatedAt time.Time
}

func NewGroup(name, adminID string, members []string) *Group {
	all := make([]string, 0, len(members)+1)
	seen := map[string]bool{adminID: true}
	all = append(all, adminID)
	for _, id := range members {
		if seen[id] {
			continue
		}
		seen[id] = true
		all = append(all, id)
	}
	return &Group{
		ID:        uuid.New(),
		Name:      name,
		AdminID:   adminID,
		Members:   all,
		CreatedAt: time.Now().UTC(),
	}
}

// IsMember reports business-level membership on an already loaded group.
func (g *Group) IsMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a persisted chat entry, direct or group. Exactly one of
// ReceiverID and GroupID is set. Immutable once stored.
type Message struct {
	ID         uuid.UUID
	SenderID   string
	ReceiverID string // empty for group messages
	GroupID    string // empty for direct messages
	Text       string
	Image      string
	CreatedAt  time.Time
}

// Empty reports whether the message carries no content at all.
func (m *Message) Empty() bool {
	return m.Text == "" && m.Image == ""
}

// ConversationKey is the identifier unread/read state and history are indexed
// by: the group id for group messages, otherwise the sender's user id.
func (m *Message) ConversationKey() string {
	if m.GroupID != "" {
		return m.GroupID
	}
	return m.SenderID
}
