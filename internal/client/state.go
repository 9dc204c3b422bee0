// Package client holds the viewer-side unread/read state machine. It is a
// cache over the server message log, never reconciled against it: reloading
// its storage at session start is the only recovery path.
package client

import (
	"context"
	"encoding/json"
	"sync"

	"convo/internal/core/contracts"
	"convo/internal/core/domain"
)

const (
	storageKeyUnread   = "unreadMessages"
	storageKeyLastRead = "lastReadMessages"

	// BottomThreshold is how close to the bottom of the active conversation
	// the viewport must be for a scroll to count as "read".
	BottomThreshold = 100
)

// StateMachine tracks per-conversation unread counters and last-read message
// pointers. Conversation keys are peer user ids for direct chats and group
// ids for group chats. Every mutation is persisted before the method returns.
type StateMachine struct {
	mu      sync.Mutex
	storage contracts.StateStorage
	selfID  string

	active   string // selected conversation key, "" when none
	unread   map[string]int
	lastRead map[string]string
}

// NewStateMachine loads any persisted state for the session. Corrupt or
// absent documents start the machine empty rather than failing the session.
func NewStateMachine(ctx context.Context, storage contracts.StateStorage, selfID string) (*StateMachine, error) {
	s := &StateMachine{
		storage:  storage,
		selfID:   selfID,
		unread:   make(map[string]int),
		lastRead: make(map[string]string),
	}
	if raw, err := storage.Get(ctx, s.key(storageKeyUnread)); err != nil {
		return nil, err
	} else if raw != "" {
		_ = json.Unmarshal([]byte(raw), &s.unread)
	}
	if raw, err := storage.Get(ctx, s.key(storageKeyLastRead)); err != nil {
		return nil, err
	} else if raw != "" {
		_ = json.Unmarshal([]byte(raw), &s.lastRead)
	}
	return s, nil
}

// OnMessage applies a delivered message: the active conversation is marked
// read immediately, any other conversation gains one unread.
func (s *StateMachine) OnMessage(ctx context.Context, p domain.MessagePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := p.ConversationKey()
	if key == s.active {
		s.lastRead[key] = p.ID
	} else {
		s.unread[key]++
	}
	s.persist(ctx)
}

// Select makes a conversation the active one and zeroes its counter. The
// last-read pointer does not move until the viewer actually reaches the
// bottom or a new message lands while the conversation is active.
func (s *StateMachine) Select(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = key
	s.unread[key] = 0
	s.persist(ctx)
}

// Deselect clears the active conversation.
func (s *StateMachine) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

// OnScroll advances the last-read pointer when the viewport is within
// BottomThreshold of the bottom of the active conversation and the latest
// message is not the viewer's own.
func (s *StateMachine) OnScroll(ctx context.Context, distanceFromBottom int, latestID, latestSenderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == "" || distanceFromBottom > BottomThreshold {
		return
	}
	if latestID == "" || latestSenderID == s.selfID {
		return
	}
	s.lastRead[s.active] = latestID
	s.persist(ctx)
}

// MarkRead acknowledges a conversation through a given message: pointer
// moves, counter resets. Used after a history fetch and after sending.
func (s *StateMachine) MarkRead(ctx context.Context, key, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRead[key] = messageID
	s.unread[key] = 0
	s.persist(ctx)
}

// Unread returns the counter for a conversation, zero when never touched.
func (s *StateMachine) Unread(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[key]
}

// LastRead returns the last acknowledged message id for a conversation.
func (s *StateMachine) LastRead(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.lastRead[key]
	return id, ok
}

// Active returns the currently selected conversation key, "" when none.
func (s *StateMachine) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *StateMachine) key(doc string) string {
	return s.selfID + ":" + doc
}

// persist writes both documents; callers hold the lock. Storage errors leave
// the in-memory state authoritative for the rest of the session.
func (s *StateMachine) persist(ctx context.Context) {
	if raw, err := json.Marshal(s.unread); err == nil {
		_ = s.storage.Set(ctx, s.key(storageKeyUnread), string(raw))
	}
	if raw, err := json.Marshal(s.lastRead); err == nil {
		_ = s.storage.Set(ctx, s.key(storageKeyLastRead), string(raw))
	}
}
