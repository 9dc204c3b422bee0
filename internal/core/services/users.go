package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"convo/internal/core/domain"
)

// UserService fronts the identity roster. Authentication mechanics beyond a
// stable user id live outside this service.
type UserService struct {
	log   *slog.Logger
	users domain.UserStore
}

func NewUserService(log *slog.Logger, users domain.UserStore) *UserService {
	return &UserService{log: log, users: users}
}

// EnsureUser returns the user, creating the row on first sight of the id.
func (s *UserService) EnsureUser(ctx context.Context, id, fullName string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidUserID
	}
	u, err := s.users.GetUserByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	u = &domain.User{ID: id, FullName: fullName, CreatedAt: time.Now().UTC()}
	if err := s.users.CreateUser(ctx, u); err != nil {
		s.log.ErrorContext(ctx, "users - ensure user - create failed", "user_id", id, "err", err)
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.InfoContext(ctx, "users - ensure user - created", "user_id", id)
	return u, nil
}

// Sidebar lists every other user, for the contact list.
func (s *UserService) Sidebar(ctx context.Context, selfID string) ([]domain.User, error) {
	return s.users.ListUsers(ctx, selfID)
}
