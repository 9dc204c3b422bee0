package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"convo/internal/core/domain"
)

// MessageStore persists direct and group messages in one table with
// nullable receiver_id/group_id columns.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) InsertMessage(ctx context.Context, m *domain.Message) error {
	exec := GetExecutor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO messages (
            id, sender_id, receiver_id, group_id, text, image, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `,
		m.ID,
		m.SenderID,
		nullString(m.ReceiverID),
		nullString(m.GroupID),
		m.Text,
		m.Image,
		m.CreatedAt,
	)
	return err
}

func (s *MessageStore) DirectHistory(ctx context.Context, a, b string) ([]domain.Message, error) {
	exec := GetExecutor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`, a, b)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *MessageStore) GroupHistory(ctx context.Context, groupID uuid.UUID) ([]domain.Message, error) {
	if groupID == uuid.Nil {
		return nil, domain.ErrInvalidGroupID
	}
	exec := GetExecutor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, group_id, text, image, created_at
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at ASC
	`, groupID.String())
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var receiver, group sql.NullString
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&receiver,
			&group,
			&m.Text,
			&m.Image,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		m.ReceiverID = receiver.String
		m.GroupID = group.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
