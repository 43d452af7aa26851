package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/store/memory"
)

func setupRouter() (*chi.Mux, *memory.Store) {
	st := memory.New()
	handler := New(st, persona.NewMemoryStore(persona.Seed()))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, st
}

func seedUser(t *testing.T, st *memory.Store) conv.User {
	t.Helper()
	user, err := st.FindOrCreateUser(context.Background(), conv.Identity{Name: "A", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("FindOrCreateUser err: %v", err)
	}
	return user
}

func TestCreateSession(t *testing.T) {
	r, st := setupRouter()
	user := seedUser(t, st)

	payload, _ := json.Marshal(map[string]string{"userId": user.ID, "assistant": "LAWYER"})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session conv.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if session.PersonaID != "LAWYER" || session.UserID != user.ID {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestCreateSessionUnknownAssistant(t *testing.T) {
	r, st := setupRouter()
	user := seedUser(t, st)

	payload, _ := json.Marshal(map[string]string{"userId": user.ID, "assistant": "ASTROLOGER"})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionUnknownUser(t *testing.T) {
	r, _ := setupRouter()

	payload, _ := json.Marshal(map[string]string{"userId": "missing", "assistant": "LAWYER"})
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListSessions(t *testing.T) {
	r, st := setupRouter()
	user := seedUser(t, st)
	ctx := context.Background()

	if _, err := st.FindOrCreateSession(ctx, "", user.ID, "HR"); err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}
	if _, err := st.FindOrCreateSession(ctx, "", user.ID, "MANAGER"); err != nil {
		t.Fatalf("FindOrCreateSession err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions?userId="+user.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var sessions []conv.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestDeleteSession(t *testing.T) {
	r, st := setupRouter()
	user := seedUser(t, st)
	ctx := context.Background()

	session, _ := st.FindOrCreateSession(ctx, "", user.ID, "HR")

	req := httptest.NewRequest(http.MethodDelete, "/session/"+session.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if _, err := st.GetSession(ctx, session.ID); err == nil {
		t.Fatal("session should be gone")
	}
}

func TestDeleteSessionNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodDelete, "/session/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetUser(t *testing.T) {
	r, st := setupRouter()
	user := seedUser(t, st)

	req := httptest.NewRequest(http.MethodGet, "/user/"+user.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got conv.User
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != user.ID || got.Email != "a@b.com" {
		t.Fatalf("unexpected user %+v", got)
	}
}
