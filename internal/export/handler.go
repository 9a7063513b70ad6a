package export

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/httpx"
)

const (
	xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvType  = "text/csv; charset=utf-8"
	htmlType = "text/html; charset=utf-8"
)

// Handler serves the export downloads.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// filterFrom reads cellGroupId, weekStart and weekEnd query parameters.
func filterFrom(r *http.Request) (Filter, error) {
	f := Filter{CellGroupID: r.URL.Query().Get("cellGroupId")}
	start, ok, err := httpx.WeekQuery(r, "weekStart")
	if err != nil {
		return f, err
	}
	if ok {
		f.WeekStart = start
	}
	end, ok, err := httpx.WeekQuery(r, "weekEnd")
	if err != nil {
		return f, err
	}
	if ok {
		f.WeekEnd = end
	}
	if !f.WeekStart.IsZero() && !f.WeekEnd.IsZero() && f.WeekEnd.Before(f.WeekStart) {
		return f, apperr.InvalidFields(map[string]string{"weekEnd": "weekEnd must not be before weekStart"})
	}
	return f, nil
}

// send buffers the rendered body so a render failure can still produce a
// proper error response.
func (h *Handler) send(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		httpx.WriteError(w, r, h.logger, apperr.Internalf(err, "render %s", filename))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Excel handles GET /export/excel.
func (h *Handler) Excel(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	rows, err := h.svc.Rows(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.send(w, r, xlsxType, "cell-group-reports.xlsx", func(b *bytes.Buffer) error {
		return ReportsXLSX(b, rows)
	})
}

// CSV handles GET /export/csv.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	rows, err := h.svc.Rows(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.send(w, r, csvType, "cell-group-reports.csv", func(b *bytes.Buffer) error {
		return ReportsCSV(b, rows)
	})
}

// Summary handles GET /export/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	groups, err := h.svc.Summary(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.send(w, r, xlsxType, "cell-group-summary.xlsx", func(b *bytes.Buffer) error {
		return SummaryXLSX(b, groups)
	})
}

// MeetingNote handles GET /export/meeting-note/{id}/pdf. The document is HTML
// laid out for the browser's print to PDF.
func (h *Handler) MeetingNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.svc.Note(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	// the document carries its own inline stylesheet and nothing else
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	h.send(w, r, htmlType, fmt.Sprintf("meeting-note-%s.html", id), func(b *bytes.Buffer) error {
		return NoteHTML(b, n, h.svc.now())
	})
}
