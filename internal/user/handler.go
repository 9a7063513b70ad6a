package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/httpx"
)

// Handler exposes admin endpoints for leader credentials.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// UpdateLeader handles PUT /admin/leaders/{id}.
func (h *Handler) UpdateLeader(w http.ResponseWriter, r *http.Request) {
	var req LeaderUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	u, err := h.svc.UpdateLeader(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Infow("leader updated", "id", u.ID)
	httpx.WriteJSON(w, http.StatusOK, u)
}
