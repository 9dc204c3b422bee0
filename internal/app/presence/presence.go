// Package presence maintains the live mapping of user id to current
// connection. Single authoritative instance per process; constructed at start
// and injected into the event bus.
package presence

import (
	"sort"
	"sync"

	"convo/internal/core/contracts"
)

type Registry struct {
	mu        sync.RWMutex
	online    map[string]contracts.Client // user id → current connection
	broadcast func(roster []string)
}

func NewRegistry() *Registry {
	return &Registry{
		online:    make(map[string]contracts.Client),
		broadcast: func([]string) {},
	}
}

// OnChange installs the roster broadcast hook. Must be called before the
// registry receives traffic.
func (r *Registry) OnChange(fn func(roster []string)) {
	r.broadcast = fn
}

// Register maps the client's user id to this connection, unconditionally
// replacing any previous mapping. The superseded connection is closed so its
// teardown cannot race this one off the roster.
func (r *Registry) Register(c contracts.Client) {
	userID := c.UserID()
	if userID == "" {
		return
	}
	r.mu.Lock()
	old := r.online[userID]
	r.online[userID] = c
	roster := r.rosterLocked()
	r.mu.Unlock()
	if old != nil && old.ID() != c.ID() {
		old.Close()
	}
	r.broadcast(roster)
}

// Unregister removes the mapping held by this connection. A connection that
// was already replaced, or a user that was never registered, is a silent
// no-op: disconnect races are expected.
func (r *Registry) Unregister(c contracts.Client) {
	userID := c.UserID()
	if userID == "" {
		return
	}
	r.mu.Lock()
	if cur, ok := r.online[userID]; !ok || cur.ID() != c.ID() {
		r.mu.Unlock()
		return
	}
	delete(r.online, userID)
	roster := r.rosterLocked()
	r.mu.Unlock()
	r.broadcast(roster)
}

// Lookup returns the user's current connection. Absence means offline, which
// is a routing fact and never an error.
func (r *Registry) Lookup(userID string) (contracts.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.online[userID]
	return c, ok
}

// Snapshot returns the sorted set of user ids currently online.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

func (r *Registry) rosterLocked() []string {
	roster := make([]string, 0, len(r.online))
	for id := range r.online {
		roster = append(roster, id)
	}
	sort.Strings(roster)
	return roster
}
