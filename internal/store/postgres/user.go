package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/store"
)

// FindOrCreateUser resolves an identity to an existing user or inserts a new
// row. Email uniqueness is enforced by the database and surfaces as
// store.ErrConflict.
func (s *PGStore) FindOrCreateUser(ctx context.Context, id conv.Identity) (conv.User, error) {
	if id.ID != "" {
		user, err := s.GetUser(ctx, id.ID)
		if err == nil {
			return user, nil
		}
		if err != store.ErrUserNotFound || !s.autoCreate {
			return conv.User{}, err
		}
		return s.insertUser(ctx, id.ID, id.Name, id.Email)
	}

	if id.Email != "" {
		user, err := s.getUserByEmail(ctx, id.Email)
		if err == nil {
			return user, nil
		}
		if err != store.ErrUserNotFound {
			return conv.User{}, err
		}
	}

	return s.insertUser(ctx, uuid.NewString(), id.Name, id.Email)
}

func (s *PGStore) insertUser(ctx context.Context, id, name, email string) (conv.User, error) {
	user := conv.User{ID: id, Name: name, Email: email}

	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email)
		 VALUES ($1, $2, NULLIF($3, ''))
		 RETURNING created_at, updated_at`,
		id, name, email,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return conv.User{}, store.ErrConflict
		}
		return conv.User{}, fmt.Errorf("store: create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by id.
func (s *PGStore) GetUser(ctx context.Context, id string) (conv.User, error) {
	return s.scanUser(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

func (s *PGStore) getUserByEmail(ctx context.Context, email string) (conv.User, error) {
	return s.scanUser(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (s *PGStore) scanUser(ctx context.Context, query string, arg any) (conv.User, error) {
	var user conv.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return conv.User{}, store.ErrUserNotFound
		}
		return conv.User{}, fmt.Errorf("store: get user: %w", err)
	}
	return user, nil
}
