package postgres

import (
	"context"
	"database/sql"

	"convo/internal/core/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	exec := GetExecutor(ctx, s.db)
	var u domain.User
	err := exec.QueryRowContext(ctx, `
		SELECT id, full_name, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) ListUsers(ctx context.Context, excludeID string) ([]domain.User, error) {
	exec := GetExecutor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, full_name, created_at
		FROM users
		WHERE id <> $1
		ORDER BY full_name ASC
	`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) CreateUser(ctx context.Context, u *domain.User) error {
	exec := GetExecutor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO users (id, full_name, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO NOTHING
    `, u.ID, u.FullName, u.CreatedAt)
	return err
}
