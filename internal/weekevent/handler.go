package weekevent

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/httpx"
)

// Handler serves /week-events.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /week-events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

// Set handles POST /week-events.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	e, err := h.svc.Set(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if e == nil {
		httpx.WriteMessage(w, http.StatusOK, "week event cleared")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}
