package leader

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/auth"
	"github.com/ovaphlow/cellgroup/internal/httpx"
	"github.com/ovaphlow/cellgroup/internal/member"
)

// Handler serves the leader endpoints for the caller's own cell group.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// caller returns the authenticated user id; Authenticate guarantees claims.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.logger, auth.ErrMissingToken)
		return "", false
	}
	return claims.UserID, true
}

// MyCellGroup handles GET /leader/my-cell-group.
func (h *Handler) MyCellGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	g, err := h.svc.MyCellGroup(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, g)
}

// AddMember handles POST /leader/members.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req AddMemberInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.AddMember(r.Context(), uid, req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

// UpdateMember handles PUT /leader/members/{id}.
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req member.ScopedUpdateInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	m, err := h.svc.UpdateMember(r.Context(), uid, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

// WeekForm handles GET /leader/reports/week/{weekStart}.
func (h *Handler) WeekForm(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	wk, err := httpx.WeekParam(r, "weekStart")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	form, err := h.svc.WeekForm(r.Context(), uid, wk)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, form)
}

// SubmitBatch handles POST /leader/reports/batch.
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req BatchInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	n, err := h.svc.SubmitBatch(r.Context(), uid, req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Infow("reports saved", "leader", uid, "week", req.WeekStart.Anchor().String(), "count", n)
	httpx.WriteCount(w, "reports saved", n)
}

// History handles GET /leader/reports/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.caller(w, r)
	if !ok {
		return
	}
	history, err := h.svc.History(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, history)
}
