package employeeshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onehr/internal/domain/audit"
	"onehr/internal/domain/auth"
	"onehr/internal/domain/employees"
	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/middleware"
	"onehr/internal/transport/http/shared"
)

type Directory interface {
	List(ctx context.Context, user auth.UserContext) ([]employees.Employee, error)
	Get(ctx context.Context, tenantID, employeeID string) (*employees.Employee, error)
	Create(ctx context.Context, tenantID string, emp employees.Employee) (string, error)
	Update(ctx context.Context, tenantID, employeeID string, emp employees.Employee) error
}

type Handler struct {
	Service Directory
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service Directory, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
	})
}

type employeeRequest struct {
	EmployeeNumber string `json:"employeeNumber"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"dateOfBirth"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	DepartmentID   string `json:"departmentId"`
	Status         string `json:"status"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	list, err := h.Service.List(r.Context(), user)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []employees.Employee{}
	}
	api.Success(w, map[string]any{"employees": list}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if errors.Is(err, employees.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_fetch_failed", "failed to fetch employee", middleware.GetRequestID(r.Context()))
		return
	}
	if user.RoleName == auth.RoleEmployee && emp.UserID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	emp, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	id, err := h.Service.Create(r.Context(), user.TenantID, emp)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	emp.ID = id
	h.record(r, user, audit.ActionCreate, id, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	emp, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	before, err := h.Service.Get(r.Context(), user.TenantID, employeeID)
	if errors.Is(err, employees.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_fetch_failed", "failed to fetch employee", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Update(r.Context(), user.TenantID, employeeID, emp); err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	emp.ID = employeeID
	h.record(r, user, audit.ActionUpdate, employeeID, before, emp)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func decodeEmployee(w http.ResponseWriter, r *http.Request) (employees.Employee, bool) {
	var payload employeeRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return employees.Employee{}, false
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "is required")
	v.Required("lastName", payload.LastName, "is required")
	v.Required("email", payload.Email, "is required")
	v.MaxLen("firstName", payload.FirstName, 100)
	v.MaxLen("lastName", payload.LastName, 100)
	v.Enum("status", payload.Status, []string{employees.StatusActive, employees.StatusInactive, employees.StatusTerminated}, "must be active, inactive or terminated")
	dob, _ := v.OptionalDate("dateOfBirth", payload.DateOfBirth)
	start, _ := v.OptionalDate("startDate", payload.StartDate)
	end, _ := v.OptionalDate("endDate", payload.EndDate)
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		v.Add("endDate", "must not be before startDate")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return employees.Employee{}, false
	}

	return employees.Employee{
		EmployeeNumber: payload.EmployeeNumber,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		Phone:          payload.Phone,
		DateOfBirth:    dob.String(),
		StartDate:      start.String(),
		EndDate:        end.String(),
		DepartmentID:   payload.DepartmentID,
		Status:         payload.Status,
	}, true
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, employeeID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: audit.EntityEmployee,
		EntityID:   employeeID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit employee failed", "err", err)
	}
}
