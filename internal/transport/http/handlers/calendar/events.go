package calendarhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"onehr/internal/domain/audit"
	"onehr/internal/domain/auth"
	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	holidayshandler "onehr/internal/transport/http/handlers/holidays"
	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/middleware"
	"onehr/internal/transport/http/shared"
)

type eventRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Color       string `json:"color"`
	Priority    string `json:"priority"`
	Recurrence  string `json:"recurrence"`
}

func (p eventRequest) holiday() holidayshandler.HolidayRequest {
	return holidayshandler.HolidayRequest{Name: p.Title, Date: p.Date, Description: p.Description}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	year, month, ok := h.monthQuery(w, r, h.today())
	if !ok {
		return
	}
	from := civil.Day{Year: year, Month: time.January, Day: 1}
	to := civil.Day{Year: year, Month: time.December, Day: 31}
	if r.URL.Query().Get("month") != "" {
		from = civil.Day{Year: year, Month: month, Day: 1}
		to = civil.Day{Year: year, Month: month, Day: civil.DaysIn(year, month)}
	}

	list, err := h.Service.ListCustom(r.Context(), user.TenantID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_event_list_failed", "failed to list calendar events", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []calendar.CustomEvent{}
	}
	api.Success(w, map[string]any{
		"events":      list,
		"occurrences": nonNil(calendar.ExpandCustom(list, from, to)),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload eventRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "is required")
	v.Required("title", payload.Title, "is required")
	v.Required("date", payload.Date, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	kind, err := calendar.ParseType(payload.Type)
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "type", Reason: "unknown event type"}})
		return
	}

	switch {
	case kind == calendar.TypeHoliday:
		if !h.allowed(r.Context(), user, auth.PermHolidaysWrite) {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
			return
		}
		h.Holidays.Add(w, r, user, payload.holiday())
		return
	case kind != calendar.TypeCustom:
		api.Fail(w, http.StatusForbidden, "read_only_event", calendar.ErrReadOnlyEvent.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	ev, ok := h.customEvent(w, r, payload)
	if !ok {
		return
	}
	created, err := h.Service.CreateCustom(r.Context(), user, ev)
	if err != nil {
		h.failEvent(w, r, err, "calendar_event_create_failed", "failed to create calendar event")
		return
	}
	h.record(r, user, audit.ActionCreate, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	eventID := chi.URLParam(r, "eventID")
	ref, ok := h.resolve(w, r, user, eventID)
	if !ok {
		return
	}
	var payload eventRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if ref.Type == calendar.TypeHoliday {
		h.Holidays.Edit(w, r, user, ref.RowID, payload.holiday())
		return
	}

	ev, ok := h.customEvent(w, r, payload)
	if !ok {
		return
	}
	before, err := h.Service.GetCustom(r.Context(), user.TenantID, ref.RowID)
	if err != nil {
		h.failEvent(w, r, err, "calendar_event_fetch_failed", "failed to fetch calendar event")
		return
	}
	updated, err := h.Service.UpdateCustom(r.Context(), user, ref.RowID, ev)
	if err != nil {
		h.failEvent(w, r, err, "calendar_event_update_failed", "failed to update calendar event")
		return
	}
	h.record(r, user, audit.ActionUpdate, ref.RowID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	ref, ok := h.resolve(w, r, user, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}
	if ref.Type == calendar.TypeHoliday {
		h.Holidays.Remove(w, r, user, ref.RowID)
		return
	}

	before, err := h.Service.GetCustom(r.Context(), user.TenantID, ref.RowID)
	if err != nil {
		h.failEvent(w, r, err, "calendar_event_fetch_failed", "failed to fetch calendar event")
		return
	}
	if err := h.Service.DeleteCustom(r.Context(), user, ref.RowID); err != nil {
		h.failEvent(w, r, err, "calendar_event_delete_failed", "failed to delete calendar event")
		return
	}
	h.record(r, user, audit.ActionDelete, ref.RowID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

// resolve maps an event id to its backing row. Derived events are rejected
// with read_only_event and holiday rows need holidays.write.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, user auth.UserContext, eventID string) (calendar.EventRef, bool) {
	ref, err := calendar.ParseEventRef(eventID)
	if err != nil {
		h.failEvent(w, r, err, "calendar_event_invalid", "invalid calendar event id")
		return calendar.EventRef{}, false
	}
	if ref.Type == calendar.TypeHoliday && !h.allowed(r.Context(), user, auth.PermHolidaysWrite) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return calendar.EventRef{}, false
	}
	return ref, true
}

func (h *Handler) customEvent(w http.ResponseWriter, r *http.Request, payload eventRequest) (calendar.CustomEvent, bool) {
	v := shared.NewValidator()
	day, _ := v.Date("date", payload.Date)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return calendar.CustomEvent{}, false
	}
	return calendar.CustomEvent{
		Title:       payload.Title,
		Description: payload.Description,
		Date:        day,
		Color:       payload.Color,
		Priority:    payload.Priority,
		Recurrence:  payload.Recurrence,
	}, true
}

func (h *Handler) failEvent(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	var invalid *calendar.ValidationError
	switch {
	case errors.As(err, &invalid):
		issues := make([]shared.ValidationIssue, 0, len(invalid.Fields))
		for _, f := range invalid.Fields {
			issues = append(issues, shared.ValidationIssue{Field: f.Field, Reason: f.Reason})
		}
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), issues)
	case errors.Is(err, calendar.ErrReadOnlyEvent):
		api.Fail(w, http.StatusForbidden, "read_only_event", calendar.ErrReadOnlyEvent.Error(), middleware.GetRequestID(r.Context()))
	case errors.Is(err, calendar.ErrUnknownEvent), errors.Is(err, calendar.ErrEventNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "calendar event not found", middleware.GetRequestID(r.Context()))
	default:
		slog.Warn("calendar event write failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) allowed(ctx context.Context, user auth.UserContext, permission string) bool {
	if h.Perms == nil {
		return auth.Allowed(user.RoleName, permission)
	}
	ok, err := h.Perms.HasPermission(ctx, user.RoleID, permission)
	if err != nil {
		slog.Warn("permission check failed", "permission", permission, "err", err)
		return false
	}
	return ok
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, eventID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: audit.EntityCalendarEvent,
		EntityID:   eventID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit calendar event failed", "err", err)
	}
}
