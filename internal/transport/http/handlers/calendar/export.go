package calendarhandler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/middleware"
)

const (
	formatICS = "ics"
	formatPDF = "pdf"
)

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatICS
	}
	if format != formatICS && format != formatPDF {
		api.Fail(w, http.StatusBadRequest, "invalid_format", "format must be ics or pdf", middleware.GetRequestID(r.Context()))
		return
	}
	year, month, ok := h.monthQuery(w, r, h.today())
	if !ok {
		return
	}
	visible, weekStart, ok := h.viewQuery(w, r)
	if !ok {
		return
	}

	view, failed, err := h.load(r.Context(), user, visible, weekStart, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}
	if len(failed) > 0 {
		slog.Warn("calendar export is missing sources", "tenantId", user.TenantID, "failed", failed)
	}

	var buf bytes.Buffer
	filename := fmt.Sprintf("onehr-calendar-%04d-%02d.%s", year, int(month), format)
	contentType := "text/calendar; charset=utf-8"
	if format == formatPDF {
		contentType = "application/pdf"
		err = calendar.WritePDF(&buf, view.MonthGrid(year, month))
	} else {
		from := civil.Day{Year: year, Month: month, Day: 1}
		to := civil.Day{Year: year, Month: month, Day: civil.DaysIn(year, month)}
		err = calendar.WriteICS(&buf, "OneHR "+view.MonthGrid(year, month).Title(), view.Between(from, to), h.Now())
	}
	if err != nil {
		slog.Warn("calendar export failed", "format", format, "err", err)
		api.Fail(w, http.StatusInternalServerError, "calendar_export_failed", "failed to export calendar", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("calendar export write failed", "err", err)
	}
}
