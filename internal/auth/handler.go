package auth

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/httpx"
)

// Handler serves the login and profile endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// LoginRequest login payload.
type LoginRequest struct {
	CellID   string `json:"cellId" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.CellID, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "cellId", req.CellID, "err", err)
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Infow("login", "user", res.User.ID, "role", res.User.Role)
	httpx.WriteJSON(w, http.StatusOK, res)
}

// Me handles GET /auth/me. It runs behind Authenticate.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.logger, ErrMissingToken)
		return
	}
	p, err := h.svc.Profile(r.Context(), claims.UserID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}
