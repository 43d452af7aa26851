// Package dispatch orchestrates one inbound message end to end: resolve the
// persona, find or create the user and session, persist the user turn, call
// the generation endpoint with ordered history, persist the reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/observability"
	"github.com/avetisov/assistant-desk/internal/store"
)

// ErrEmptyMessage rejects requests with no message text.
var ErrEmptyMessage = errors.New("message text is required")

// Generator is the outbound boundary to the external model endpoint.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []conv.Message, userText string) (string, error)
}

// Input is one inbound message-send request.
type Input struct {
	SessionID string
	PersonaID string
	Message   string
	UserID    string
	UserEmail string
	UserName  string
}

// Output carries the reply and the session to continue on.
type Output struct {
	Reply     string
	SessionID string
}

// Service wires the persona registry, the conversation store and the
// generation client.
type Service struct {
	personas persona.Store
	store    store.Store
	gen      Generator
	// degradedFallback persists and returns "LLM error: ..." instead of
	// failing the request when generation fails. Local development only.
	degradedFallback bool
}

// Option customizes service behavior.
type Option func(*Service)

// WithDegradedFallback enables the error-string-as-reply mode.
func WithDegradedFallback() Option {
	return func(s *Service) { s.degradedFallback = true }
}

// NewService builds a dispatch service.
func NewService(personas persona.Store, st store.Store, gen Generator, opts ...Option) *Service {
	s := &Service{personas: personas, store: st, gen: gen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle walks one request through resolve-user, resolve-session, persist
// user turn, fetch history, generate, persist assistant turn. The first
// failure aborts the remaining steps; already-persisted turns stay persisted,
// so a user message survives a generation failure.
func (s *Service) Handle(ctx context.Context, in Input) (Output, error) {
	if strings.TrimSpace(in.Message) == "" {
		return Output{}, ErrEmptyMessage
	}

	requested, ok := s.personas.FindByID(in.PersonaID)
	if !ok {
		return Output{}, fmt.Errorf("%w: %s", persona.ErrUnknownPersona, in.PersonaID)
	}

	user, err := s.store.FindOrCreateUser(ctx, conv.Identity{
		ID:    in.UserID,
		Email: in.UserEmail,
		Name:  in.UserName,
	})
	if err != nil {
		return Output{}, err
	}

	session, err := s.store.FindOrCreateSession(ctx, in.SessionID, user.ID, requested.ID)
	if err != nil {
		return Output{}, err
	}

	// The persona fixed at session creation frames every turn; a different
	// persona named by a follow-up request is ignored.
	active := requested
	if session.PersonaID != requested.ID {
		if stored, ok := s.personas.FindByID(session.PersonaID); ok {
			active = stored
		}
	}

	userMsg, err := s.store.AppendMessage(ctx, session.ID, conv.RoleUser, in.Message)
	if err != nil {
		return Output{}, err
	}

	history, err := s.store.History(ctx, session.ID)
	if err != nil {
		return Output{}, err
	}
	prior := priorTurns(history, userMsg.ID)

	reply, err := s.gen.Generate(ctx, active.SystemPrompt, prior, in.Message)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("generation failed",
			"session_id", session.ID,
			"persona_id", active.ID,
			"prompt_turns", len(prior)+1,
			"error", err,
		)
		if !s.degradedFallback {
			return Output{}, err
		}
		reply = "LLM error: " + err.Error()
	}

	if _, err := s.store.AppendMessage(ctx, session.ID, conv.RoleAssistant, reply); err != nil {
		return Output{}, err
	}

	return Output{Reply: reply, SessionID: session.ID}, nil
}

// priorTurns drops the just-persisted user message from the fetched history;
// the generator receives it separately as the new user turn.
func priorTurns(history []conv.Message, userMsgID string) []conv.Message {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ID == userMsgID {
			return append(history[:i:i], history[i+1:]...)
		}
	}
	return history
}
