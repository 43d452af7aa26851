package message

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/service/ai"
	"github.com/avetisov/assistant-desk/internal/service/dispatch"
	"github.com/avetisov/assistant-desk/internal/store"
	"github.com/avetisov/assistant-desk/pkg/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// Handler serves message dispatch and transcript retrieval.
type Handler struct {
	dispatcher *dispatch.Service
	store      store.Store
}

// New creates the message handler. dispatcher may be nil when the generation
// endpoint is not configured; dispatch requests then fail with 503.
func New(dispatcher *dispatch.Service, st store.Store) *Handler {
	return &Handler{dispatcher: dispatcher, store: st}
}

// RegisterRoutes registers message routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/message", h.handleSendMessage)
	r.Get("/history/{sessionID}", h.handleHistory)
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Assistant string `json:"assistant"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

type sendMessageResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "generation endpoint not configured")
		return
	}

	var payload sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if payload.Assistant == "" {
		utils.RespondError(w, http.StatusBadRequest, "assistant is required")
		return
	}

	out, err := h.dispatcher.Handle(r.Context(), dispatch.Input{
		SessionID: payload.SessionID,
		PersonaID: payload.Assistant,
		Message:   payload.Message,
		UserID:    payload.UserID,
		UserEmail: payload.UserEmail,
		UserName:  payload.UserName,
	})
	if err != nil {
		respondDispatchError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sendMessageResponse{
		Response:  out.Reply,
		SessionID: out.SessionID,
	})
}

func respondDispatchError(w http.ResponseWriter, err error) {
	var genErr *ai.GenerationError

	switch {
	case errors.Is(err, dispatch.ErrEmptyMessage), errors.Is(err, persona.ErrUnknownPersona):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		utils.RespondError(w, http.StatusBadGateway, "assistant reply could not be generated")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

type historyResponse struct {
	Data   any `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit, offset, err := parsePagination(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.store.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	total := len(messages)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		Data:   messages[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxHistoryLimit {
			return 0, 0, errors.New("limit must be between 1 and 100")
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be non-negative")
		}
	}
	return limit, offset, nil
}
