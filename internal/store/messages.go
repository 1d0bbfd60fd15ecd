package store

import (
	"context"
	"fmt"

	"eventhub/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, sender_name, receiver_name, content, created_at`

const (
	insertMessageSQL = `
		INSERT INTO messages (sender_id, receiver_id, sender_name, receiver_name, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + messageColumns

	selectConversationSQL = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC`

	selectMessagesForSQL = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC`
)

// InsertMessage appends a message. Messages are never updated.
func (s *Store) InsertMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	var out models.Message
	if err := s.db.QueryRowContext(ctx, insertMessageSQL,
		m.SenderID, m.ReceiverID, m.SenderName, m.ReceiverName, m.Content,
	).Scan(&out.ID, &out.SenderID, &out.ReceiverID, &out.SenderName, &out.ReceiverName, &out.Content, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &out, nil
}

// Conversation returns the messages exchanged between a and b in send order.
func (s *Store) Conversation(ctx context.Context, a, b string) ([]models.Message, error) {
	return s.queryMessages(ctx, selectConversationSQL, a, b)
}

// MessagesFor returns every message uid sent or received, newest first.
func (s *Store) MessagesFor(ctx context.Context, uid string) ([]models.Message, error) {
	return s.queryMessages(ctx, selectMessagesForSQL, uid)
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.SenderName, &m.ReceiverName, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
