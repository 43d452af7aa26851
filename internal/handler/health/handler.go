package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avetisov/assistant-desk/pkg/utils"
)

// Pinger is implemented by stores that can verify backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the liveness endpoint.
type Handler struct {
	pinger Pinger
}

// New creates the health handler. pinger may be nil for the in-memory store.
func New(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

// RegisterRoutes registers health routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			utils.RespondError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
