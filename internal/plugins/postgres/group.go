package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"convo/internal/core/domain"
)

// GroupStore persists groups and their member sets.
type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func (s *GroupStore) CreateGroup(ctx context.Context, g *domain.Group) error {
	exec := GetExecutor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO groups (id, name, admin_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, g.ID, g.Name, g.AdminID, g.CreatedAt)
	if err != nil {
		return err
	}
	for _, member := range g.Members {
		if _, err := exec.ExecContext(ctx, `
            INSERT INTO group_members (group_id, user_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, g.ID, member); err != nil {
			return err
		}
	}
	return nil
}

func (s *GroupStore) GetGroupByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	exec := GetExecutor(ctx, s.db)
	var g domain.Group
	err := exec.QueryRowContext(ctx, `
		SELECT id, name, admin_id, created_at
		FROM groups
		WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		g.Members = append(g.Members, member)
	}
	return &g, rows.Err()
}

func (s *GroupStore) ListGroupsByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	exec := GetExecutor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT g.id, g.name, g.admin_id, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *GroupStore) IsMember(ctx context.Context, id uuid.UUID, userID string) (bool, error) {
	exec := GetExecutor(ctx, s.db)
	var ok bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2
		)
	`, id, userID).Scan(&ok)
	return ok, err
}

func (s *GroupStore) RemoveMember(ctx context.Context, id uuid.UUID, userID string) (int, error) {
	exec := GetExecutor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2
	`, id, userID); err != nil {
		return 0, err
	}
	var remaining int
	err := exec.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_members WHERE group_id = $1
	`, id).Scan(&remaining)
	return remaining, err
}

func (s *GroupStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	exec := GetExecutor(ctx, s.db)
	if _, err := exec.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1
	`, id); err != nil {
		return err
	}
	_, err := exec.ExecContext(ctx, `
		DELETE FROM groups WHERE id = $1
	`, id)
	return err
}
