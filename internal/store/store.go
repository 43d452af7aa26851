// Package store defines the conversation persistence contract shared by the
// in-memory and postgres backends.
package store

import (
	"context"
	"errors"

	"github.com/avetisov/assistant-desk/internal/model/conv"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	// ErrConflict reports a uniqueness violation on create (duplicate email,
	// duplicate explicit id). Callers may retry the operation as a lookup.
	ErrConflict = errors.New("conflict on create")
)

// Store owns User, Session and Message records. Implementations must make
// AppendMessage ordering and find-or-create races safe at the storage layer;
// no in-process lock is assumed to cover concurrent workers.
type Store interface {
	// FindOrCreateUser resolves identity to an existing user or persists a
	// new one. An explicit id that does not resolve fails with
	// ErrUserNotFound unless the store was built with auto-create enabled.
	FindOrCreateUser(ctx context.Context, id conv.Identity) (conv.User, error)

	// FindOrCreateSession returns the session ref points at, or creates one
	// owned by userID with personaID fixed when ref is empty. The persona of
	// an existing session always wins over the personaID argument.
	FindOrCreateSession(ctx context.Context, ref, userID, personaID string) (conv.Session, error)

	// AppendMessage persists a new immutable turn and returns it with its
	// generated id, sequence number and timestamp.
	AppendMessage(ctx context.Context, sessionID string, role conv.Role, text string) (conv.Message, error)

	// History returns every message of the session in ascending sequence
	// order. A session with no turns yields an empty slice, not an error.
	History(ctx context.Context, sessionID string) ([]conv.Message, error)

	GetUser(ctx context.Context, id string) (conv.User, error)
	GetSession(ctx context.Context, id string) (conv.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]conv.Session, error)

	// DeleteSession removes the session and all of its messages.
	DeleteSession(ctx context.Context, id string) error
}
