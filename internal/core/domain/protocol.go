package domain

import (
	"encoding/json"
	"time"
)

// Named events carried over the websocket. The handshake itself is not an
// event: the user id travels as a query parameter on the upgrade request.
const (
	EventOnlineUsers     = "getOnlineUsers"
	EventJoinGroup       = "joinGroup"
	EventNewMessage      = "newMessage"
	EventNewGroupMessage = "newGroupMessage"
)

// Envelope frames every wire event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessagePayload is the JSON shape of a message on the wire and in REST
// responses.
type MessagePayload struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	GroupID    string    `json:"groupId,omitempty"`
	Text       string    `json:"text"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func PayloadFromMessage(m *Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID.String(),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		GroupID:    m.GroupID,
		Text:       m.Text,
		Image:      m.Image,
		CreatedAt:  m.CreatedAt,
	}
}

// ConversationKey mirrors Message.ConversationKey for payloads already on the
// receiving side.
func (p MessagePayload) ConversationKey() string {
	if p.GroupID != "" {
		return p.GroupID
	}
	return p.SenderID
}

// GroupPayload is the REST shape of a group.
type GroupPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   string    `json:"adminId"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

func PayloadFromGroup(g *Group) GroupPayload {
	return GroupPayload{
		ID:        g.ID.String(),
		Name:      g.Name,
		AdminID:   g.AdminID,
		Members:   g.Members,
		CreatedAt: g.CreatedAt,
	}
}
