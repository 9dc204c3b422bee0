package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"convo/internal/core/domain"
)

// GroupService owns group lifecycle: create, list, leave. Membership is the
// business-level record the delivery path and the bus's join check consult.
type GroupService struct {
	log    *slog.Logger
	groups domain.GroupStore
	tx     TxRunner
}

func NewGroupService(log *slog.Logger, groups domain.GroupStore, tx TxRunner) *GroupService {
	return &GroupService{log: log, groups: groups, tx: tx}
}

// Create makes a group with the creator as admin and member. A group needs a
// name and at least two invited members besides the creator.
func (s *GroupService) Create(ctx context.Context, adminID, name string, memberIDs []string) (*domain.Group, error) {
	ctx, span := tracer.Start(ctx, "GroupService.Create", trace.WithAttributes(
		attribute.String("chat.admin_id", adminID),
	))
	defer span.End()
	if name == "" || len(memberIDs) < 2 {
		span.RecordError(domain.ErrGroupTooSmall)
		return nil, domain.ErrGroupTooSmall
	}
	group := domain.NewGroup(name, adminID, memberIDs)
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.groups.CreateGroup(txCtx, group)
	}); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "groups - create - persist failed", "admin_id", adminID, "err", err)
		return nil, fmt.Errorf("create group: %w", err)
	}
	s.log.InfoContext(ctx, "groups - create - created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// ListByMember returns the groups a user belongs to.
func (s *GroupService) ListByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	return s.groups.ListGroupsByMember(ctx, userID)
}

// IsMember satisfies the bus's membership contract.
func (s *GroupService) IsMember(ctx context.Context, groupID uuid.UUID, userID string) (bool, error) {
	return s.groups.IsMember(ctx, groupID, userID)
}

// Leave removes the user from the group; the last member leaving deletes the
// group outright.
func (s *GroupService) Leave(ctx context.Context, groupID uuid.UUID, userID string) error {
	ctx, span := tracer.Start(ctx, "GroupService.Leave", trace.WithAttributes(
		attribute.String("chat.group_id", groupID.String()),
		attribute.String("chat.user_id", userID),
	))
	defer span.End()
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		return domain.ErrGroupNotFound
	}
	if !group.IsMember(userID) {
		span.RecordError(domain.ErrNotGroupMember)
		return domain.ErrNotGroupMember
	}
	return s.tx.WithTx(ctx, func(txCtx context.Context) error {
		remaining, err := s.groups.RemoveMember(txCtx, groupID, userID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			s.log.InfoContext(ctx, "groups - leave - deleting empty group", "group_id", groupID)
			return s.groups.DeleteGroup(txCtx, groupID)
		}
		return nil
	})
}
