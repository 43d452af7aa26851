package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/store"
)

// appendRetries bounds how often a losing MAX(seq)+1 race is replayed.
const appendRetries = 3

// AppendMessage inserts a turn with the next sequence number. Two workers
// racing on the same session collide on the (session_id, seq) constraint;
// the loser recomputes and retries.
func (s *PGStore) AppendMessage(ctx context.Context, sessionID string, role conv.Role, text string) (conv.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return conv.Message{}, err
	}

	msg := conv.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
	}

	var err error
	for attempt := 0; attempt < appendRetries; attempt++ {
		err = s.db.QueryRow(ctx,
			`INSERT INTO messages (id, session_id, seq, role, text)
			 VALUES ($1, $2, COALESCE((SELECT MAX(seq) FROM messages WHERE session_id = $2), 0) + 1, $3, $4)
			 RETURNING seq, created_at`,
			msg.ID, sessionID, string(role), text,
		).Scan(&msg.Seq, &msg.CreatedAt)
		if err == nil {
			_, _ = s.db.Exec(ctx, `UPDATE sessions SET updated_at = NOW() WHERE id = $1`, sessionID)
			return msg, nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}

	return conv.Message{}, fmt.Errorf("store: append message: %w", err)
}

// History returns all messages for a session in ascending sequence order.
func (s *PGStore) History(ctx context.Context, sessionID string) ([]conv.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, seq, role, text, created_at
		 FROM messages WHERE session_id = $1 ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()

	messages := make([]conv.Message, 0, 16)
	for rows.Next() {
		var msg conv.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Seq, &role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		msg.Role = conv.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	return messages, nil
}

var _ store.Store = (*PGStore)(nil)
