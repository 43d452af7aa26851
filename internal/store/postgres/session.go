package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/store"
)

// FindOrCreateSession returns the referenced session or creates a new one.
// Creating at an explicit id goes through ON CONFLICT DO NOTHING followed by
// a lookup, so two concurrent creators converge on a single row and the
// persona fixed by whichever insert won.
func (s *PGStore) FindOrCreateSession(ctx context.Context, ref, userID, personaID string) (conv.Session, error) {
	if ref != "" {
		session, err := s.GetSession(ctx, ref)
		if err == nil {
			return session, nil
		}
		if err != store.ErrSessionNotFound || !s.autoCreate {
			return conv.Session{}, err
		}

		if _, err := s.db.Exec(ctx,
			`INSERT INTO sessions (id, user_id, persona_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			ref, userID, personaID,
		); err != nil {
			return conv.Session{}, fmt.Errorf("store: create session: %w", err)
		}
		return s.GetSession(ctx, ref)
	}

	session := conv.Session{ID: uuid.NewString(), UserID: userID, PersonaID: personaID}
	err := s.db.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, persona_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		session.ID, userID, personaID,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return conv.Session{}, store.ErrConflict
		}
		return conv.Session{}, fmt.Errorf("store: create session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session by id.
func (s *PGStore) GetSession(ctx context.Context, id string) (conv.Session, error) {
	var session conv.Session
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, persona_id, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.UserID, &session.PersonaID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return conv.Session{}, store.ErrSessionNotFound
		}
		return conv.Session{}, fmt.Errorf("store: get session: %w", err)
	}
	return session, nil
}

// ListSessionsByUser returns a user's sessions, newest first.
func (s *PGStore) ListSessionsByUser(ctx context.Context, userID string) ([]conv.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, persona_id, created_at, updated_at
		 FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []conv.Session
	for rows.Next() {
		var session conv.Session
		if err := rows.Scan(&session.ID, &session.UserID, &session.PersonaID, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session; messages cascade via the foreign key.
func (s *PGStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}
