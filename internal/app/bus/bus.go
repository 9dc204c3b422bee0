// Package bus is the transport-level pub/sub core: it owns every live
// websocket, dispatches named inbound events through a single-threaded task
// queue, and emits named events to one connection, a room, or everyone.
package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"convo/internal/app/bus/ws"
	"convo/internal/app/presence"
	"convo/internal/app/rooms"
	"convo/internal/core/contracts"
	"convo/internal/core/domain"
)

// HandlerFunc handles one named inbound event. Handlers run on the
// connection's read goroutine, so inbound events from one client stay in
// order; any registry or router mutation must go through the task queue.
type HandlerFunc func(ctx context.Context, c contracts.Client, data json.RawMessage)

// ConnFunc observes connection lifecycle transitions.
type ConnFunc func(ctx context.Context, c contracts.Client)

const joinCheckTimeout = 5 * time.Second

type Bus struct {
	log      *slog.Logger
	presence *presence.Registry
	rooms    *rooms.Router
	groups   contracts.GroupMembership

	handlers     map[string]HandlerFunc
	onConnect    []ConnFunc
	onDisconnect []ConnFunc

	tasks chan func()

	mu    sync.RWMutex
	conns map[string]contracts.Client // every live connection, roster or not

	upgrader websocket.Upgrader
}

func New(log *slog.Logger, reg *presence.Registry, router *rooms.Router, groups contracts.GroupMembership) *Bus {
	b := &Bus{
		log:      log,
		presence: reg,
		rooms:    router,
		groups:   groups,
		handlers: make(map[string]HandlerFunc),
		tasks:    make(chan func(), 1024),
		conns:    make(map[string]contracts.Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // fronted by the HTTP layer's own screening
			},
		},
	}
	reg.OnChange(func(roster []string) {
		b.EmitToAll(context.Background(), domain.EventOnlineUsers, roster)
	})
	b.OnEvent(domain.EventJoinGroup, b.handleJoinGroup)
	return b
}

// OnEvent installs the handler for a named event. Registration happens at
// wiring time, before Run; there is no unregistration.
func (b *Bus) OnEvent(event string, h HandlerFunc) {
	b.handlers[event] = h
}

func (b *Bus) OnConnect(fn ConnFunc)    { b.onConnect = append(b.onConnect, fn) }
func (b *Bus) OnDisconnect(fn ConnFunc) { b.onDisconnect = append(b.onDisconnect, fn) }

// Run consumes the task queue until ctx is done. Exactly one Run loop per
// bus: registry and router mutations are atomic within a dispatch turn.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-b.tasks:
			task()
		}
	}
}

func (b *Bus) dispatch(task func()) {
	b.tasks <- task
}

// HandleWS upgrades the request and serves the connection until it drops.
// The user id rides the handshake query; a connection without one is served
// but never registered for presence.
func (b *Bus) HandleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error("bus - handle ws - upgrade failed", "err", err)
		return
	}
	userID := r.URL.Query().Get("userId")
	ctx := context.WithoutCancel(r.Context())
	conn := ws.NewConn(ctx, raw)
	client := ws.NewClient(ctx, conn, userID)

	b.mu.Lock()
	b.conns[client.ID()] = client
	b.mu.Unlock()

	b.dispatch(func() {
		b.presence.Register(client)
		for _, fn := range b.onConnect {
			fn(ctx, client)
		}
	})
	b.log.Info("bus - handle ws - connected", "user_id", userID, "conn_id", client.ID())

	conn.ReadLoop(func(data []byte) {
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			b.log.Debug("bus - handle ws - bad frame", "conn_id", client.ID(), "err", err)
			return
		}
		h, ok := b.handlers[env.Event]
		if !ok {
			b.log.Debug("bus - handle ws - unknown event", "event", env.Event, "conn_id", client.ID())
			return
		}
		h(ctx, client, env.Data)
	})

	client.Close()
	b.mu.Lock()
	delete(b.conns, client.ID())
	b.mu.Unlock()
	b.dispatch(func() {
		b.rooms.LeaveAll(client)
		b.presence.Unregister(client)
		for _, fn := range b.onDisconnect {
			fn(ctx, client)
		}
	})
	b.log.Info("bus - handle ws - disconnected", "user_id", userID, "conn_id", client.ID())
}

// EmitToUser resolves through the presence registry. Offline is a no-op and
// reported through the return value only.
func (b *Bus) EmitToUser(ctx context.Context, userID, event string, payload any) bool {
	c, ok := b.presence.Lookup(userID)
	if !ok {
		return false
	}
	data, err := encode(event, payload)
	if err != nil {
		b.log.Error("bus - emit to user - encode failed", "event", event, "err", err)
		return false
	}
	return c.Send(ctx, data) == nil
}

// EmitToRoom delegates to the room router; the sender's own connection
// receives the event too.
func (b *Bus) EmitToRoom(ctx context.Context, roomID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		b.log.Error("bus - emit to room - encode failed", "event", event, "err", err)
		return
	}
	b.rooms.Broadcast(ctx, roomID, data)
}

// EmitToAll reaches every live connection, the unauthenticated ones included.
func (b *Bus) EmitToAll(ctx context.Context, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		b.log.Error("bus - emit to all - encode failed", "event", event, "err", err)
		return
	}
	b.mu.RLock()
	targets := make([]contracts.Client, 0, len(b.conns))
	for _, c := range b.conns {
		targets = append(targets, c)
	}
	b.mu.RUnlock()
	for _, c := range targets {
		_ = c.Send(ctx, data)
	}
}

// handleJoinGroup joins the connection to the group's room. Business-level
// membership is verified first: a client may only enter rooms of groups it
// belongs to, regardless of what it asks for. The store lookup happens here
// on the read goroutine; only the room mutation is queued, so a slow check
// never blocks the dispatcher.
func (b *Bus) handleJoinGroup(ctx context.Context, c contracts.Client, data json.RawMessage) {
	var groupID string
	if err := json.Unmarshal(data, &groupID); err != nil {
		b.log.Debug("bus - join group - bad payload", "conn_id", c.ID(), "err", err)
		return
	}
	gid, err := uuid.Parse(groupID)
	if err != nil || c.UserID() == "" {
		b.log.Debug("bus - join group - refused", "conn_id", c.ID(), "group_id", groupID)
		return
	}
	checkCtx, cancel := context.WithTimeout(ctx, joinCheckTimeout)
	defer cancel()
	ok, err := b.groups.IsMember(checkCtx, gid, c.UserID())
	if err != nil {
		b.log.Error("bus - join group - membership check failed", "group_id", groupID, "user_id", c.UserID(), "err", err)
		return
	}
	if !ok {
		b.log.Info("bus - join group - refused non-member", "group_id", groupID, "user_id", c.UserID())
		return
	}
	b.dispatch(func() {
		b.rooms.Join(c, groupID)
		b.log.Info("bus - join group - joined", "group_id", groupID, "user_id", c.UserID(), "conn_id", c.ID())
	})
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Event: event, Data: data})
}
