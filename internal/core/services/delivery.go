package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"convo/internal/core/contracts"
	"convo/internal/core/domain"
)

var tracer = otel.Tracer("delivery-service")

// TxRunner runs a unit of work transactionally.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SendInput is the caller-supplied content of a message.
type SendInput struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// DeliveryService orchestrates the send and history paths: persist first,
// then resolve recipients and emit. Persistence success, not live delivery,
// is the completion signal of a send.
type DeliveryService struct {
	log      *slog.Logger
	users    domain.UserStore
	groups   domain.GroupStore
	messages domain.MessageStore
	bus      contracts.Emitter
	tx       TxRunner
}

func NewDeliveryService(
	log *slog.Logger,
	users domain.UserStore,
	groups domain.GroupStore,
	messages domain.MessageStore,
	bus contracts.Emitter,
	tx TxRunner,
) *DeliveryService {
	return &DeliveryService{
		log:      log,
		users:    users,
		groups:   groups,
		messages: messages,
		bus:      bus,
		tx:       tx,
	}
}

// SendDirect persists a direct message and best-effort delivers it to the
// receiver's live connection. The persisted message is returned to the
// sender regardless of delivery outcome; an offline receiver is not an error.
func (s *DeliveryService) SendDirect(ctx context.Context, senderID, receiverID string, in SendInput) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.SendDirect", trace.WithAttributes(
		attribute.String("chat.sender_id", senderID),
		attribute.String("chat.receiver_id", receiverID),
	))
	defer span.End()
	if in.Text == "" && in.Image == "" {
		span.RecordError(domain.ErrEmptyMessage)
		return nil, domain.ErrEmptyMessage
	}
	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "delivery - send direct - unknown receiver", "receiver_id", receiverID, "err", err)
		return nil, domain.ErrUserNotFound
	}
	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       in.Text,
		Image:      in.Image,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.messages.InsertMessage(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "delivery - send direct - persist failed", "sender_id", senderID, "err", err)
		return nil, fmt.Errorf("persist message: %w", err)
	}
	delivered := s.bus.EmitToUser(ctx, receiverID, domain.EventNewMessage, domain.PayloadFromMessage(msg))
	span.SetAttributes(attribute.Bool("chat.delivered_live", delivered))
	s.log.InfoContext(ctx, "delivery - send direct - persisted", "message_id", msg.ID, "delivered_live", delivered)
	return msg, nil
}

// SendGroup persists a group message and emits it to the group's room. The
// sender must be a business-level member of the group; unlike room joins,
// that check is enforced here.
func (s *DeliveryService) SendGroup(ctx context.Context, senderID string, groupID uuid.UUID, in SendInput) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.SendGroup", trace.WithAttributes(
		attribute.String("chat.sender_id", senderID),
		attribute.String("chat.group_id", groupID.String()),
	))
	defer span.End()
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "delivery - send group - group lookup failed", "group_id", groupID, "err", err)
		return nil, domain.ErrGroupNotFound
	}
	if !group.IsMember(senderID) {
		span.RecordError(domain.ErrNotGroupMember)
		return nil, domain.ErrNotGroupMember
	}
	if in.Text == "" && in.Image == "" {
		span.RecordError(domain.ErrEmptyMessage)
		return nil, domain.ErrEmptyMessage
	}
	msg := &domain.Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		GroupID:   groupID.String(),
		Text:      in.Text,
		Image:     in.Image,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.messages.InsertMessage(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "delivery - send group - persist failed", "group_id", groupID, "err", err)
		return nil, fmt.Errorf("persist message: %w", err)
	}
	s.bus.EmitToRoom(ctx, groupID.String(), domain.EventNewGroupMessage, domain.PayloadFromMessage(msg))
	s.log.InfoContext(ctx, "delivery - send group - persisted", "message_id", msg.ID, "group_id", groupID)
	return msg, nil
}

// DirectHistory returns the full two-way history between two users, oldest
// first. No pagination; the store query is the seam where a cursor would go.
func (s *DeliveryService) DirectHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.DirectHistory")
	defer span.End()
	msgs, err := s.messages.DirectHistory(ctx, a, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history read failed")
		s.log.ErrorContext(ctx, "delivery - direct history - read failed", "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("chat.message_count", len(msgs)))
	return msgs, nil
}

// GroupHistory returns the full history of a group, oldest first.
func (s *DeliveryService) GroupHistory(ctx context.Context, groupID uuid.UUID) ([]domain.Message, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.GroupHistory", trace.WithAttributes(
		attribute.String("chat.group_id", groupID.String()),
	))
	defer span.End()
	if _, err := s.groups.GetGroupByID(ctx, groupID); err != nil {
		span.RecordError(err)
		return nil, domain.ErrGroupNotFound
	}
	msgs, err := s.messages.GroupHistory(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history read failed")
		s.log.ErrorContext(ctx, "delivery - group history - read failed", "group_id", groupID, "err", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("chat.message_count", len(msgs)))
	return msgs, nil
}
