// Package rooms resolves transport-level broadcast groups. Membership is
// per-connection state, rebuilt each connection lifetime, never persisted.
// Business-level membership checks do not live here.
package rooms

import (
	"context"
	"sync"

	"convo/internal/core/contracts"
)

type Router struct {
	mu    sync.RWMutex
	rooms map[string]map[string]contracts.Client // room id → conn id → client
}

func NewRouter() *Router {
	return &Router{
		rooms: make(map[string]map[string]contracts.Client),
	}
}

// Join adds the connection to the room's delivery set. Idempotent.
func (r *Router) Join(c contracts.Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]contracts.Client)
	}
	r.rooms[roomID][c.ID()] = c
}

// Leave removes the connection from one room. No-op if it never joined.
func (r *Router) Leave(c contracts.Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[roomID], c.ID())
	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
	}
}

// LeaveAll removes the connection from every room, on disconnect.
func (r *Router) LeaveAll(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, members := range r.rooms {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Broadcast delivers data to every connection currently joined to the room,
// the sender's own connection included.
func (r *Router) Broadcast(ctx context.Context, roomID string, data []byte) {
	r.mu.RLock()
	members := make([]contracts.Client, 0, len(r.rooms[roomID]))
	for _, c := range r.rooms[roomID] {
		members = append(members, c)
	}
	r.mu.RUnlock()
	for _, c := range members {
		_ = c.Send(ctx, data)
	}
}
