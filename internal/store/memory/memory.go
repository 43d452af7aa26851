// Package memory provides a mutex-guarded in-memory Store used by tests and
// as a zero-dependency local development backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/store"
)

// Store keeps all records in maps. A single mutex serializes writes, so
// message sequence numbers are deterministic under concurrent appends.
type Store struct {
	mu         sync.RWMutex
	users      map[string]conv.User
	emailIndex map[string]string
	sessions   map[string]conv.Session
	messages   map[string][]conv.Message

	autoCreate bool
}

// Option customizes store behavior.
type Option func(*Store)

// WithAutoCreateMissing makes explicitly-supplied-but-absent user and session
// identifiers create a record at that identifier instead of failing fast.
func WithAutoCreateMissing() Option {
	return func(s *Store) { s.autoCreate = true }
}

// New returns an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		users:      make(map[string]conv.User),
		emailIndex: make(map[string]string),
		sessions:   make(map[string]conv.Session),
		messages:   make(map[string][]conv.Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOrCreateUser implements store.Store.
func (s *Store) FindOrCreateUser(_ context.Context, id conv.Identity) (conv.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id.ID != "" {
		if user, ok := s.users[id.ID]; ok {
			return user, nil
		}
		if !s.autoCreate {
			return conv.User{}, store.ErrUserNotFound
		}
		return s.createUserLocked(id.ID, id.Name, id.Email)
	}

	if id.Email != "" {
		if userID, ok := s.emailIndex[id.Email]; ok {
			return s.users[userID], nil
		}
	}

	return s.createUserLocked(uuid.NewString(), id.Name, id.Email)
}

func (s *Store) createUserLocked(id, name, email string) (conv.User, error) {
	if email != "" {
		if _, taken := s.emailIndex[email]; taken {
			return conv.User{}, store.ErrConflict
		}
	}

	now := time.Now().UTC()
	user := conv.User{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[id] = user
	if email != "" {
		s.emailIndex[email] = id
	}
	return user, nil
}

// FindOrCreateSession implements store.Store.
func (s *Store) FindOrCreateSession(_ context.Context, ref, userID, personaID string) (conv.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref != "" {
		if session, ok := s.sessions[ref]; ok {
			return session, nil
		}
		if !s.autoCreate {
			return conv.Session{}, store.ErrSessionNotFound
		}
		return s.createSessionLocked(ref, userID, personaID)
	}

	return s.createSessionLocked(uuid.NewString(), userID, personaID)
}

func (s *Store) createSessionLocked(id, userID, personaID string) (conv.Session, error) {
	if _, ok := s.users[userID]; !ok {
		return conv.Session{}, store.ErrUserNotFound
	}

	now := time.Now().UTC()
	session := conv.Session{
		ID:        id,
		UserID:    userID,
		PersonaID: personaID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = session
	s.messages[id] = make([]conv.Message, 0, 16)
	return session, nil
}

// AppendMessage implements store.Store.
func (s *Store) AppendMessage(_ context.Context, sessionID string, role conv.Role, text string) (conv.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return conv.Message{}, store.ErrSessionNotFound
	}

	message := conv.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       len(s.messages[sessionID]) + 1,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], message)

	session.UpdatedAt = message.CreatedAt
	s.sessions[sessionID] = session

	return message, nil
}

// History implements store.Store.
func (s *Store) History(_ context.Context, sessionID string) ([]conv.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, store.ErrSessionNotFound
	}

	messages := s.messages[sessionID]
	copied := make([]conv.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// GetUser implements store.Store.
func (s *Store) GetUser(_ context.Context, id string) (conv.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return conv.User{}, store.ErrUserNotFound
	}
	return user, nil
}

// GetSession implements store.Store.
func (s *Store) GetSession(_ context.Context, id string) (conv.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return conv.Session{}, store.ErrSessionNotFound
	}
	return session, nil
}

// ListSessionsByUser implements store.Store, newest first.
func (s *Store) ListSessionsByUser(_ context.Context, userID string) ([]conv.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []conv.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteSession implements store.Store, cascading to messages.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

var _ store.Store = (*Store)(nil)
