package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	healthHandler "github.com/avetisov/assistant-desk/internal/handler/health"
	messageHandler "github.com/avetisov/assistant-desk/internal/handler/message"
	personaHandler "github.com/avetisov/assistant-desk/internal/handler/persona"
	sessionHandler "github.com/avetisov/assistant-desk/internal/handler/session"
	middlewarePkg "github.com/avetisov/assistant-desk/internal/middleware"
	personaModel "github.com/avetisov/assistant-desk/internal/model/persona"
	"github.com/avetisov/assistant-desk/internal/service/dispatch"
	"github.com/avetisov/assistant-desk/internal/store"
)

// NewRouter wires HTTP routes to core services. dispatcher may be nil when
// the generation endpoint is not configured; pinger may be nil for the
// in-memory store.
func NewRouter(personas personaModel.Store, st store.Store, dispatcher *dispatch.Service, pinger healthHandler.Pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		personaHandler.New(personas).RegisterRoutes(api)
		messageHandler.New(dispatcher, st).RegisterRoutes(api)
		sessionHandler.New(st, personas).RegisterRoutes(api)
		healthHandler.New(pinger).RegisterRoutes(api)
	})

	return r
}
