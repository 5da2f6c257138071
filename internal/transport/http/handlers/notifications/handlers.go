package notificationshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"onehr/internal/domain/auth"
	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/notifications"
	"onehr/internal/transport/http/api"
	"onehr/internal/transport/http/middleware"
	"onehr/internal/transport/http/shared"
)

type Inbox interface {
	Create(ctx context.Context, tenantID, userID string, in notifications.Input) (string, bool, error)
	List(ctx context.Context, tenantID, userID string, limit, offset int) ([]notifications.Notification, error)
	ListDue(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]notifications.Notification, error)
	Count(ctx context.Context, tenantID, userID string) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
	Delete(ctx context.Context, tenantID, userID, notificationID string) error
	GetSettings(ctx context.Context, tenantID string) (bool, string, error)
	UpdateSettings(ctx context.Context, tenantID string, enabled bool, from string) error
}

type AlertRunner interface {
	GenerateAlerts(ctx context.Context, tenantID string) (calendar.AlertRun, error)
}

type Handler struct {
	Service Inbox
	Alerts  AlertRunner
	Perms   middleware.PermissionStore
}

func NewHandler(service Inbox, alerts AlertRunner, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Alerts: alerts, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermNotificationsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermNotificationsWrite, h.Perms)

	r.Route("/notifications", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(write).Post("/generate-calendar-alerts", h.handleGenerateAlerts)
		r.With(read).Post("/{notificationID}/read", h.handleMarkRead)
		r.With(read).Delete("/{notificationID}", h.handleDelete)
		r.With(write).Get("/settings", h.handleSettings)
		r.With(write).Put("/settings", h.handleUpdateSettings)
	})
}

type createRequest struct {
	UserID            string `json:"userId"`
	Type              string `json:"type"`
	Category          string `json:"category"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	Priority          string `json:"priority"`
	DueDate           string `json:"dueDate"`
	ActionURL         string `json:"actionUrl"`
	ActionLabel       string `json:"actionLabel"`
	RelatedEntityType string `json:"relatedEntityType"`
	RelatedEntityID   string `json:"relatedEntityId"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	if query.Has("dueFrom") || query.Has("dueTo") {
		h.handleListDue(w, r, user)
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), user.TenantID, user.UserID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.TenantID, user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

// handleListDue serves every notification due in [dueFrom, dueTo] in one
// unpaged response.
func (h *Handler) handleListDue(w http.ResponseWriter, r *http.Request, user auth.UserContext) {
	v := shared.NewValidator()
	from, okFrom := v.Date("dueFrom", r.URL.Query().Get("dueFrom"))
	to, okTo := v.Date("dueTo", r.URL.Query().Get("dueTo"))
	if okFrom && okTo && to.Before(from) {
		v.Add("dueTo", "must not be before dueFrom")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	items, err := h.Service.ListDue(r.Context(), user.TenantID, user.UserID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("title", payload.Title, "is required")
	v.MaxLen("title", payload.Title, 200)
	due, _ := v.Date("dueDate", payload.DueDate)
	v.Enum("priority", payload.Priority, notifications.Priorities, "must be low, medium, high or urgent")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	recipient := strings.TrimSpace(payload.UserID)
	if recipient == "" {
		recipient = user.UserID
	}
	id, _, err := h.Service.Create(r.Context(), user.TenantID, recipient, notifications.Input{
		Type:              payload.Type,
		Category:          payload.Category,
		Title:             payload.Title,
		Message:           payload.Message,
		Priority:          payload.Priority,
		DueDate:           &due,
		ActionURL:         payload.ActionURL,
		ActionLabel:       payload.ActionLabel,
		RelatedEntityType: payload.RelatedEntityType,
		RelatedEntityID:   payload.RelatedEntityID,
	})
	if errors.Is(err, notifications.ErrInvalidInput) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "title", Reason: "is required"}})
		return
	}
	if err != nil {
		slog.Warn("notification create failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_create_failed", "failed to create notification", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	run, err := h.Alerts.GenerateAlerts(r.Context(), user.TenantID)
	if err != nil {
		slog.Warn("calendar alert generation failed", "tenantId", user.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "alert_generation_failed", "failed to generate calendar alerts", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.TenantID, user.UserID, notificationID); err != nil {
		failWrite(w, r, err, "notification_update_failed", "failed to update notification")
		return
	}

	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.Delete(r.Context(), user.TenantID, user.UserID, notificationID); err != nil {
		failWrite(w, r, err, "notification_delete_failed", "failed to delete notification")
		return
	}

	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	enabled, from, err := h.Service.GetSettings(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"emailEnabled": enabled, "emailFrom": from}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmailEnabled bool   `json:"emailEnabled"`
		EmailFrom    string `json:"emailFrom"`
	}
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.UpdateSettings(r.Context(), user.TenantID, payload.EmailEnabled, payload.EmailFrom); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func failWrite(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	if errors.Is(err, notifications.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
}
