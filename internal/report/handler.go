package report

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/httpx"
	"github.com/ovaphlow/cellgroup/internal/report/entity"
)

// Handler exposes the admin report and attendance endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /admin/reports?cellGroupId=&weekStart=&memberId=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := entity.Filter{CellGroupID: q.Get("cellGroupId"), MemberID: q.Get("memberId")}
	wk, ok, err := httpx.WeekQuery(r, "weekStart")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if ok {
		f.WeekStart = wk
	}
	reports, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reports)
}

// Summary handles GET /admin/reports/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

// AttendanceWeek handles GET /admin/attendance/week/{weekStart}.
func (h *Handler) AttendanceWeek(w http.ResponseWriter, r *http.Request) {
	wk, err := httpx.WeekParam(r, "weekStart")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	grid, err := h.svc.AttendanceWeek(r.Context(), wk)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, grid)
}

// AttendanceBatch handles POST /admin/attendance/batch.
func (h *Handler) AttendanceBatch(w http.ResponseWriter, r *http.Request) {
	var req AttendanceBatchInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	n, err := h.svc.SaveAttendance(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Infow("attendance saved", "week", req.WeekStart.Anchor().String(), "count", n)
	httpx.WriteCount(w, "attendance saved", n)
}
