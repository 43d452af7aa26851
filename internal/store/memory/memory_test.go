package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/store"
	"github.com/avetisov/assistant-desk/internal/store/memory"
)

func newSession(t *testing.T, s *memory.Store) conv.Session {
	t.Helper()
	ctx := context.Background()

	user, err := s.FindOrCreateUser(ctx, conv.Identity{Name: "A", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	session, err := s.FindOrCreateSession(ctx, "", user.ID, "ACCOUNTANT")
	if err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}
	return session
}

func TestHistoryMatchesAppendOrder(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	session := newSession(t, s)

	for i := 0; i < 5; i++ {
		if _, err := s.AppendMessage(ctx, session.ID, conv.RoleUser, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("AppendMessage err: %v", err)
		}
	}

	history, err := s.History(ctx, session.ID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(history))
	}
	for i, msg := range history {
		if msg.Seq != i+1 {
			t.Fatalf("message %d has seq %d", i, msg.Seq)
		}
		if msg.Text != fmt.Sprintf("turn %d", i) {
			t.Fatalf("message %d out of order: %q", i, msg.Text)
		}
	}
}

func TestHistoryEmptySession(t *testing.T) {
	s := memory.New()
	session := newSession(t, s)

	history, err := s.History(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history))
	}
}

func TestConcurrentAppendsGetDistinctSeqs(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	session := newSession(t, s)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AppendMessage(ctx, session.ID, conv.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
				t.Errorf("AppendMessage err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, err := s.History(ctx, session.ID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	seen := make(map[int]bool, workers)
	for _, msg := range history {
		if seen[msg.Seq] {
			t.Fatalf("duplicate seq %d", msg.Seq)
		}
		seen[msg.Seq] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct seqs, got %d", workers, len(seen))
	}
}

func TestFindOrCreateUserIdempotentByID(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	first, err := s.FindOrCreateUser(ctx, conv.Identity{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	second, err := s.FindOrCreateUser(ctx, conv.Identity{ID: first.ID})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
	}
}

func TestFindOrCreateUserResolvesByEmail(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	first, _ := s.FindOrCreateUser(ctx, conv.Identity{Email: "a@b.com", Name: "A"})
	second, err := s.FindOrCreateUser(ctx, conv.Identity{Email: "a@b.com", Name: "other"})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected email lookup to return the existing user")
	}
}

func TestFindOrCreateUserUnknownIDFailsFast(t *testing.T) {
	s := memory.New()

	_, err := s.FindOrCreateUser(context.Background(), conv.Identity{ID: "missing"})
	if err != store.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFindOrCreateUserAutoCreateMissing(t *testing.T) {
	s := memory.New(memory.WithAutoCreateMissing())

	user, err := s.FindOrCreateUser(context.Background(), conv.Identity{ID: "client-minted", Name: "A"})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	if user.ID != "client-minted" {
		t.Fatalf("expected supplied id to be kept, got %s", user.ID)
	}
}

func TestSessionPersonaFixedAtCreation(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	session := newSession(t, s)

	again, err := s.FindOrCreateSession(ctx, session.ID, session.UserID, "LAWYER")
	if err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}
	if again.ID != session.ID {
		t.Fatal("expected the existing session")
	}
	if again.PersonaID != "ACCOUNTANT" {
		t.Fatalf("persona changed to %s", again.PersonaID)
	}
}

func TestFindOrCreateSessionUnknownRefFailsFast(t *testing.T) {
	s := memory.New()
	session := newSession(t, s)

	_, err := s.FindOrCreateSession(context.Background(), "missing", session.UserID, "ACCOUNTANT")
	if err != store.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	s := memory.New(memory.WithAutoCreateMissing())
	ctx := context.Background()

	if _, err := s.FindOrCreateUser(ctx, conv.Identity{Email: "a@b.com", Name: "A"}); err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	_, err := s.FindOrCreateUser(ctx, conv.Identity{ID: "someone-else", Email: "a@b.com"})
	if err != store.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	session := newSession(t, s)

	if _, err := s.AppendMessage(ctx, session.ID, conv.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}
	if err := s.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if _, err := s.History(ctx, session.ID); err != store.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestAppendMessageUnknownSession(t *testing.T) {
	s := memory.New()

	_, err := s.AppendMessage(context.Background(), "missing", conv.RoleUser, "hello")
	if err != store.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
