package holidayshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"onehr/internal/domain/audit"
	"onehr/internal/domain/auth"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/holidays"
	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/middleware"
	"onehr/internal/transport/http/shared"
)

type Calendar interface {
	InitializeUS(ctx context.Context, tenantID string, year int) (holidays.InitResult, error)
	List(ctx context.Context, tenantID string, year int) ([]holidays.Holiday, error)
	Get(ctx context.Context, tenantID, holidayID string) (*holidays.Holiday, error)
	Create(ctx context.Context, tenantID string, h holidays.Holiday) (string, error)
	Update(ctx context.Context, tenantID, holidayID string, h holidays.Holiday) error
	Delete(ctx context.Context, tenantID, holidayID string) error
}

type Handler struct {
	Service Calendar
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
	Today   func() civil.Day
}

func NewHandler(service Calendar, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{
		Service: service,
		Perms:   perms,
		Audit:   recorder,
		Today:   func() civil.Day { return civil.Today(time.Now(), nil) },
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	write := middleware.RequirePermission(auth.PermHolidaysWrite, h.Perms)
	r.With(write).Post("/hr-calendar/initialize-us-holidays", h.handleInitialize)
	r.With(middleware.RequirePermission(auth.PermCalendarRead, h.Perms)).Get("/hr-calendar/holidays", h.handleList)
	r.With(write).Post("/hr-calendar/holidays", h.handleCreate)
	r.With(write).Put("/hr-calendar/holidays/{holidayID}", h.handleUpdate)
	r.With(write).Delete("/hr-calendar/holidays/{holidayID}", h.handleDelete)
}

type HolidayRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Region      string `json:"region"`
	Description string `json:"description"`
}

// Validate checks the payload and writes a validation error response when it
// fails.
func (p HolidayRequest) Validate(w http.ResponseWriter, requestID string) (holidays.Holiday, bool) {
	v := shared.NewValidator()
	v.Required("name", p.Name, "is required")
	v.MaxLen("name", p.Name, 200)
	day, _ := v.Date("date", p.Date)
	if v.Reject(w, requestID) {
		return holidays.Holiday{}, false
	}
	return holidays.Holiday{Name: p.Name, Date: day, Region: p.Region, Description: p.Description}, true
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	year, err := shared.QueryYear(r, h.Today())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.InitializeUS(r.Context(), user.TenantID, year)
	if err != nil {
		slog.Warn("holiday initialization failed", "tenantId", user.TenantID, "year", year, "err", err)
		api.Fail(w, http.StatusInternalServerError, "holiday_init_failed", "failed to initialize holidays", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, audit.ActionInitialize, "us-federal", nil, result)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	year, err := shared.QueryYear(r, h.Today())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.List(r.Context(), user.TenantID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_list_failed", "failed to list holidays", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []holidays.Holiday{}
	}
	api.Success(w, map[string]any{"holidays": list}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload HolidayRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.Add(w, r, user, payload)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload HolidayRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.Edit(w, r, user, chi.URLParam(r, "holidayID"), payload)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	h.Remove(w, r, user, chi.URLParam(r, "holidayID"))
}

// Add validates and creates a holiday, then writes the response. The
// calendar event routes call it for events of type holiday.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request, user auth.UserContext, payload HolidayRequest) {
	holiday, ok := payload.Validate(w, middleware.GetRequestID(r.Context()))
	if !ok {
		return
	}
	id, err := h.Service.Create(r.Context(), user.TenantID, holiday)
	if err != nil {
		failWrite(w, r, err, "holiday_create_failed", "failed to create holiday")
		return
	}
	created, err := h.Service.Get(r.Context(), user.TenantID, id)
	if err != nil {
		failWrite(w, r, err, "holiday_fetch_failed", "failed to fetch holiday")
		return
	}
	h.record(r, user, audit.ActionCreate, id, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

// Edit validates and applies payload to a holiday, then writes the response.
// The calendar event routes call it for holiday-{id} ids.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request, user auth.UserContext, holidayID string, payload HolidayRequest) {
	holiday, ok := payload.Validate(w, middleware.GetRequestID(r.Context()))
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), user.TenantID, holidayID)
	if err != nil {
		failWrite(w, r, err, "holiday_fetch_failed", "failed to fetch holiday")
		return
	}
	if err := h.Service.Update(r.Context(), user.TenantID, holidayID, holiday); err != nil {
		failWrite(w, r, err, "holiday_update_failed", "failed to update holiday")
		return
	}
	after, err := h.Service.Get(r.Context(), user.TenantID, holidayID)
	if err != nil {
		failWrite(w, r, err, "holiday_fetch_failed", "failed to fetch holiday")
		return
	}
	h.record(r, user, audit.ActionUpdate, holidayID, before, after)
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

// Remove deletes a holiday and writes the response.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request, user auth.UserContext, holidayID string) {
	before, err := h.Service.Get(r.Context(), user.TenantID, holidayID)
	if err != nil {
		failWrite(w, r, err, "holiday_fetch_failed", "failed to fetch holiday")
		return
	}
	if err := h.Service.Delete(r.Context(), user.TenantID, holidayID); err != nil {
		failWrite(w, r, err, "holiday_delete_failed", "failed to delete holiday")
		return
	}
	h.record(r, user, audit.ActionDelete, holidayID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func failWrite(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	switch {
	case errors.Is(err, holidays.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "holiday not found", middleware.GetRequestID(r.Context()))
	case errors.Is(err, holidays.ErrInvalidHoliday):
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "name", Reason: "name and date are required"}})
	default:
		slog.Warn("holiday write failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, holidayID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: audit.EntityHoliday,
		EntityID:   holidayID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit holiday failed", "err", err)
	}
}
