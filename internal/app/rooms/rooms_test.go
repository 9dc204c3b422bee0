package rooms

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeClient struct {
	id string

	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeClient) ID() string     { return c.id }
func (c *fakeClient) UserID() string { return c.id }
func (c *fakeClient) Close()         {}
func (c *fakeClient) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}
func (c *fakeClient) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

func TestBroadcastReachesEveryMemberIncludingSender(t *testing.T) {
	r := NewRouter()
	sender := &fakeClient{id: "conn-a"}
	peer := &fakeClient{id: "conn-b"}
	outsider := &fakeClient{id: "conn-c"}

	r.Join(sender, "room-1")
	r.Join(peer, "room-1")
	r.Join(outsider, "room-2")

	r.Broadcast(context.Background(), "room-1", []byte("hello"))

	assert.Len(t, sender.received(), 1, "sender-visible echo is intentional")
	assert.Len(t, peer.received(), 1)
	assert.Empty(t, outsider.received())
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRouter()
	c := &fakeClient{id: "conn-a"}

	r.Join(c, "room-1")
	r.Join(c, "room-1")

	r.Broadcast(context.Background(), "room-1", []byte("once"))
	assert.Len(t, c.received(), 1, "double join must not cause double delivery")
}

func TestLeaveAllRemovesFromEveryRoom(t *testing.T) {
	r := NewRouter()
	c := &fakeClient{id: "conn-a"}
	other := &fakeClient{id: "conn-b"}

	r.Join(c, "room-1")
	r.Join(c, "room-2")
	r.Join(other, "room-1")

	r.LeaveAll(c)

	r.Broadcast(context.Background(), "room-1", []byte("x"))
	r.Broadcast(context.Background(), "room-2", []byte("y"))
	assert.Empty(t, c.received())
	assert.Len(t, other.received(), 1)
}

func TestBroadcastToEmptyRoomIsSilent(t *testing.T) {
	r := NewRouter()
	assert.NotPanics(t, func() {
		r.Broadcast(context.Background(), "nowhere", []byte("x"))
	})
}

func TestLeaveUnjoinedRoomIsNoOp(t *testing.T) {
	r := NewRouter()
	c := &fakeClient{id: "conn-a"}
	assert.NotPanics(t, func() { r.Leave(c, "room-1") })
}
