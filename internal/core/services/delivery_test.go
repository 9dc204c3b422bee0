package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo/internal/core/domain"
	"convo/internal/core/services"
)

func newDelivery(users *fakeUserStore, groups *fakeGroupStore, msgs *fakeMessageStore, emitter *fakeEmitter) *services.DeliveryService {
	return services.NewDeliveryService(testLog, users, groups, msgs, emitter, passTx{})
}

func TestSendDirectEmptyMessageRejected(t *testing.T) {
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{}
	svc := newDelivery(newFakeUserStore("alice", "bob"), newFakeGroupStore(), msgs, emitter)

	_, err := svc.SendDirect(context.Background(), "alice", "bob", services.SendInput{})

	require.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Zero(t, msgs.count(), "rejected message must never reach persistence")
	assert.Empty(t, emitter.events, "rejected message must never be emitted")
}

func TestSendDirectUnknownReceiverRejected(t *testing.T) {
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{}
	svc := newDelivery(newFakeUserStore("alice"), newFakeGroupStore(), msgs, emitter)

	_, err := svc.SendDirect(context.Background(), "alice", "nobody", services.SendInput{Text: "hi"})

	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Zero(t, msgs.count())
	assert.Empty(t, emitter.events)
}

func TestSendDirectPersistsThenEmits(t *testing.T) {
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{online: map[string]bool{"bob": true}}
	svc := newDelivery(newFakeUserStore("alice", "bob"), newFakeGroupStore(), msgs, emitter)

	msg, err := svc.SendDirect(context.Background(), "alice", "bob", services.SendInput{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "bob", msg.ReceiverID)
	assert.Equal(t, 1, msgs.count())
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "bob", emitter.events[0].target)
	assert.Equal(t, domain.EventNewMessage, emitter.events[0].event)
}

func TestSendDirectOfflineReceiverStillPersists(t *testing.T) {
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{} // bob has no live connection
	svc := newDelivery(newFakeUserStore("alice", "bob"), newFakeGroupStore(), msgs, emitter)

	msg, err := svc.SendDirect(context.Background(), "alice", "bob", services.SendInput{Text: "hi"})
	require.NoError(t, err, "delivery miss is not an error")

	history, err := svc.DirectHistory(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestSendDirectPersistenceFailureAbortsEmission(t *testing.T) {
	msgs := &fakeMessageStore{failNext: true}
	emitter := &fakeEmitter{online: map[string]bool{"bob": true}}
	svc := newDelivery(newFakeUserStore("alice", "bob"), newFakeGroupStore(), msgs, emitter)

	_, err := svc.SendDirect(context.Background(), "alice", "bob", services.SendInput{Text: "hi"})

	require.Error(t, err)
	assert.Empty(t, emitter.events, "no emission without confirmed persistence")
	assert.Zero(t, msgs.count())
}

func TestSendGroupEnforcesMembership(t *testing.T) {
	group := domain.NewGroup("team", "alice", []string{"bob", "carol"})
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{}
	svc := newDelivery(newFakeUserStore("alice", "bob", "carol", "dave"), newFakeGroupStore(group), msgs, emitter)

	_, err := svc.SendGroup(context.Background(), "dave", group.ID, services.SendInput{Text: "let me in"})

	require.ErrorIs(t, err, domain.ErrNotGroupMember)
	assert.Zero(t, msgs.count())
	assert.Empty(t, emitter.events)
}

func TestSendGroupUnknownGroupRejected(t *testing.T) {
	svc := newDelivery(newFakeUserStore("alice"), newFakeGroupStore(), &fakeMessageStore{}, &fakeEmitter{})

	_, err := svc.SendGroup(context.Background(), "alice", uuid.New(), services.SendInput{Text: "hi"})
	require.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestSendGroupPersistsAndBroadcastsToRoom(t *testing.T) {
	group := domain.NewGroup("team", "alice", []string{"bob", "carol"})
	msgs := &fakeMessageStore{}
	emitter := &fakeEmitter{}
	svc := newDelivery(newFakeUserStore("alice", "bob", "carol"), newFakeGroupStore(group), msgs, emitter)

	msg, err := svc.SendGroup(context.Background(), "carol", group.ID, services.SendInput{Text: "hello"})

	require.NoError(t, err)
	assert.Equal(t, group.ID.String(), msg.GroupID)
	assert.Empty(t, msg.ReceiverID)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, group.ID.String(), emitter.events[0].target)
	assert.Equal(t, domain.EventNewGroupMessage, emitter.events[0].event)
}

func TestDirectHistoryRoundTrip(t *testing.T) {
	msgs := &fakeMessageStore{}
	svc := newDelivery(newFakeUserStore("alice", "bob", "carol"), newFakeGroupStore(), msgs, &fakeEmitter{})
	ctx := context.Background()

	first, err := svc.SendDirect(ctx, "alice", "bob", services.SendInput{Text: "one"})
	require.NoError(t, err)
	second, err := svc.SendDirect(ctx, "bob", "alice", services.SendInput{Text: "two"})
	require.NoError(t, err)
	_, err = svc.SendDirect(ctx, "alice", "carol", services.SendInput{Text: "other thread"})
	require.NoError(t, err)

	history, err := svc.DirectHistory(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 2, "each message appears exactly once, other conversations excluded")
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	assert.False(t, history[1].CreatedAt.Before(history[0].CreatedAt))
}

func TestGroupHistoryOrdering(t *testing.T) {
	group := domain.NewGroup("team", "alice", []string{"bob", "carol"})
	svc := newDelivery(newFakeUserStore("alice", "bob", "carol"), newFakeGroupStore(group), &fakeMessageStore{}, &fakeEmitter{})
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.SendGroup(ctx, "alice", group.ID, services.SendInput{Text: text})
		require.NoError(t, err)
	}

	history, err := svc.GroupHistory(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "three", history[2].Text)
}

func TestSendGroupEmptyMessageRejected(t *testing.T) {
	group := domain.NewGroup("team", "alice", []string{"bob", "carol"})
	msgs := &fakeMessageStore{}
	svc := newDelivery(newFakeUserStore("alice"), newFakeGroupStore(group), msgs, &fakeEmitter{})

	_, err := svc.SendGroup(context.Background(), "alice", group.ID, services.SendInput{})
	require.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Zero(t, msgs.count())
}

func TestSendDirectImageOnlyAccepted(t *testing.T) {
	msgs := &fakeMessageStore{}
	svc := newDelivery(newFakeUserStore("alice", "bob"), newFakeGroupStore(), msgs, &fakeEmitter{})

	msg, err := svc.SendDirect(context.Background(), "alice", "bob", services.SendInput{Image: "data:image/png;base64,xyz"})
	require.NoError(t, err)
	assert.Empty(t, msg.Text)
	assert.NotEmpty(t, msg.Image)
}
