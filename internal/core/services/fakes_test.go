package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"convo/internal/core/domain"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// passTx runs the unit of work without a real transaction.
type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserStore struct {
	users map[string]domain.User
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]domain.User)}
	for _, id := range ids {
		s.users[id] = domain.User{ID: id, FullName: id}
	}
	return s
}

func (s *fakeUserStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *fakeUserStore) ListUsers(ctx context.Context, excludeID string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range s.users {
		if u.ID != excludeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) CreateUser(ctx context.Context, u *domain.User) error {
	s.users[u.ID] = *u
	return nil
}

type fakeGroupStore struct {
	groups map[uuid.UUID]*domain.Group
}

func newFakeGroupStore(groups ...*domain.Group) *fakeGroupStore {
	s := &fakeGroupStore{groups: make(map[uuid.UUID]*domain.Group)}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *fakeGroupStore) CreateGroup(ctx context.Context, g *domain.Group) error {
	s.groups[g.ID] = g
	return nil
}

func (s *fakeGroupStore) GetGroupByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return g, nil
}

func (s *fakeGroupStore) ListGroupsByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range s.groups {
		if g.IsMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *fakeGroupStore) IsMember(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	g, ok := s.groups[id]
	if !ok {
		return false, nil
	}
	return g.IsMember(userID), nil
}

func (s *fakeGroupStore) RemoveMember(ctx context.Context, id uuid.UUID, userID string) (int, error) {
	g, ok := s.groups[id]
	if !ok {
		return 0, domain.ErrGroupNotFound
	}
	kept := g.Members[:0]
	for _, m := range g.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	g.Members = kept
	return len(g.Members), nil
}

func (s *fakeGroupStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	delete(s.groups, id)
	return nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages []domain.Message
	failNext bool
}

func (s *fakeMessageStore) InsertMessage(ctx context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("store unavailable")
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *fakeMessageStore) DirectHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.GroupID != "" {
			continue
		}
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeMessageStore) GroupHistory(ctx context.Context, groupID uuid.UUID) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.GroupID == groupID.String() {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeMessageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type emitted struct {
	target  string // user id or room id, "*" for all
	event   string
	payload any
}

type fakeEmitter struct {
	online map[string]bool
	events []emitted
}

func (e *fakeEmitter) EmitToUser(ctx context.Context, userID, event string, payload any) bool {
	e.events = append(e.events, emitted{target: userID, event: event, payload: payload})
	return e.online[userID]
}

func (e *fakeEmitter) EmitToRoom(ctx context.Context, roomID, event string, payload any) {
	e.events = append(e.events, emitted{target: roomID, event: event, payload: payload})
}

func (e *fakeEmitter) EmitToAll(ctx context.Context, event string, payload any) {
	e.events = append(e.events, emitted{target: "*", event: event, payload: payload})
}
