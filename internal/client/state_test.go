package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo/internal/core/domain"
)

type memStorage struct {
	values map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{values: make(map[string]string)}
}

func (s *memStorage) Get(ctx context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memStorage) Set(ctx context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func newMachine(t *testing.T) (*StateMachine, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	sm, err := NewStateMachine(context.Background(), storage, "me")
	require.NoError(t, err)
	return sm, storage
}

func TestInactiveConversationIncrementsUnread(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice", Text: "hi"})
	sm.OnMessage(ctx, domain.MessagePayload{ID: "m2", SenderID: "alice", Text: "there"})
	sm.OnMessage(ctx, domain.MessagePayload{ID: "m3", SenderID: "bob", Text: "yo"})

	assert.Equal(t, 2, sm.Unread("alice"))
	assert.Equal(t, 1, sm.Unread("bob"))
	_, ok := sm.LastRead("alice")
	assert.False(t, ok, "unread messages do not move the read pointer")
}

func TestActiveConversationMarksReadImmediately(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.Select(ctx, "alice")
	sm.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice", Text: "hi"})

	assert.Zero(t, sm.Unread("alice"))
	id, ok := sm.LastRead("alice")
	require.True(t, ok)
	assert.Equal(t, "m1", id)
}

func TestSelectResetsCounterButNotPointer(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice"})
	sm.OnMessage(ctx, domain.MessagePayload{ID: "m2", SenderID: "alice"})
	require.Equal(t, 2, sm.Unread("alice"))

	sm.Select(ctx, "alice")

	assert.Zero(t, sm.Unread("alice"))
	_, ok := sm.LastRead("alice")
	assert.False(t, ok, "pointer moves only on scroll-to-bottom or active receipt")
}

func TestCounterMonotonicBetweenSelects(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.Select(ctx, "bob")
	last := sm.Unread("alice")
	for i := 0; i < 5; i++ {
		sm.OnMessage(ctx, domain.MessagePayload{ID: "m", SenderID: "alice"})
		cur := sm.Unread("alice")
		assert.GreaterOrEqual(t, cur, last)
		last = cur
	}
	sm.Select(ctx, "alice")
	assert.Zero(t, sm.Unread("alice"))
}

func TestScrollToBottomAdvancesPointer(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.Select(ctx, "alice")
	sm.OnScroll(ctx, BottomThreshold+1, "m9", "alice")
	_, ok := sm.LastRead("alice")
	assert.False(t, ok, "far from the bottom nothing is acknowledged")

	sm.OnScroll(ctx, BottomThreshold-1, "m9", "alice")
	id, ok := sm.LastRead("alice")
	require.True(t, ok)
	assert.Equal(t, "m9", id)
}

func TestScrollIgnoresOwnLatestMessage(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.Select(ctx, "alice")
	sm.OnScroll(ctx, 0, "m9", "me")
	_, ok := sm.LastRead("alice")
	assert.False(t, ok)
}

func TestScrollWithoutActiveConversationIsNoOp(t *testing.T) {
	sm, _ := newMachine(t)
	sm.OnScroll(context.Background(), 0, "m9", "alice")
	_, ok := sm.LastRead("alice")
	assert.False(t, ok)
}

func TestGroupMessagesKeyedByGroup(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice", GroupID: "g1"})
	sm.OnMessage(ctx, domain.MessagePayload{ID: "m2", SenderID: "bob", GroupID: "g1"})

	assert.Equal(t, 2, sm.Unread("g1"))
	assert.Zero(t, sm.Unread("alice"), "group traffic never counts against the sender's direct thread")
}

func TestStatePersistsAcrossSessions(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()

	first, err := NewStateMachine(ctx, storage, "me")
	require.NoError(t, err)
	first.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice"})
	first.MarkRead(ctx, "bob", "m7")

	second, err := NewStateMachine(ctx, storage, "me")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Unread("alice"))
	id, ok := second.LastRead("bob")
	require.True(t, ok)
	assert.Equal(t, "m7", id)
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	storage := newMemStorage()
	storage.values["me:unreadMessages"] = "{not json"

	sm, err := NewStateMachine(context.Background(), storage, "me")
	require.NoError(t, err)
	assert.Zero(t, sm.Unread("alice"))
}

func TestMarkReadResetsCounterAndMovesPointer(t *testing.T) {
	sm, _ := newMachine(t)
	ctx := context.Background()

	sm.OnMessage(ctx, domain.MessagePayload{ID: "m1", SenderID: "alice"})
	sm.MarkRead(ctx, "alice", "m1")

	assert.Zero(t, sm.Unread("alice"))
	id, _ := sm.LastRead("alice")
	assert.Equal(t, "m1", id)
	assert.GreaterOrEqual(t, sm.Unread("alice"), 0, "reset never goes negative")
}
