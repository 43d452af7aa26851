package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avetisov/assistant-desk/internal/model/conv"
	"github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/store"
	"github.com/avetisov/assistant-desk/pkg/utils"
)

// Handler serves session and user record endpoints.
type Handler struct {
	store    store.Store
	personas persona.Store
}

// New creates the session handler.
func New(st store.Store, personas persona.Store) *Handler {
	return &Handler{store: st, personas: personas}
}

// RegisterRoutes registers session and user routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Get("/user/{userID}", h.handleGetUser)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID    string `json:"userId"`
		Assistant string `json:"assistant"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	p, ok := h.personas.FindByID(payload.Assistant)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unknown assistant")
		return
	}

	if _, err := h.store.GetUser(r.Context(), payload.UserID); err != nil {
		h.respondStoreError(w, err)
		return
	}

	session, err := h.store.FindOrCreateSession(r.Context(), "", payload.UserID, p.ID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	sessions, err := h.store.ListSessionsByUser(r.Context(), userID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	if sessions == nil {
		sessions = []conv.Session{}
	}

	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
