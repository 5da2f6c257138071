package calendarhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
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

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 366
)

type Calendar interface {
	Assemble(ctx context.Context, user auth.UserContext, year int) (calendar.Snapshot, error)
	ListCustom(ctx context.Context, tenantID string, from, to civil.Day) ([]calendar.CustomEvent, error)
	CreateCustom(ctx context.Context, user auth.UserContext, ev calendar.CustomEvent) (*calendar.CustomEvent, error)
	UpdateCustom(ctx context.Context, user auth.UserContext, id string, ev calendar.CustomEvent) (*calendar.CustomEvent, error)
	DeleteCustom(ctx context.Context, user auth.UserContext, id string) error
	GetCustom(ctx context.Context, tenantID, id string) (*calendar.CustomEvent, error)
}

type Handler struct {
	Service   Calendar
	Holidays  *holidayshandler.Handler
	Perms     middleware.PermissionStore
	Audit     audit.Recorder
	WeekStart time.Weekday
	Location  *time.Location
	Now       func() time.Time
}

func NewHandler(service Calendar, hols *holidayshandler.Handler, perms middleware.PermissionStore, recorder audit.Recorder) *Handler {
	return &Handler{
		Service:   service,
		Holidays:  hols,
		Perms:     perms,
		Audit:     recorder,
		WeekStart: time.Sunday,
		Location:  time.Local,
		Now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCalendarRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCalendarWrite, h.Perms)

	r.With(read).Get("/hr-calendar/month", h.handleMonth)
	r.With(read).Get("/hr-calendar/day", h.handleDay)
	r.With(read).Get("/hr-calendar/upcoming", h.handleUpcoming)
	r.With(read).Get("/hr-calendar/export", h.handleExport)

	r.Route("/calendar-events", func(r chi.Router) {
		r.With(read).Get("/", h.handleListEvents)
		r.With(write).Post("/", h.handleCreateEvent)
		r.With(write).Put("/{eventID}", h.handleUpdateEvent)
		r.With(write).Delete("/{eventID}", h.handleDeleteEvent)
	})
}

type legendEntry struct {
	Type    calendar.EventType `json:"type"`
	Color   string             `json:"color"`
	Visible bool               `json:"visible"`
}

type monthResponse struct {
	calendar.Grid
	Title         string               `json:"title"`
	Weekdays      []string             `json:"weekdays"`
	Today         civil.Day            `json:"today"`
	TodayEvents   []calendar.Event     `json:"todayEvents"`
	Upcoming      []calendar.Event     `json:"upcoming"`
	Legend        []legendEntry        `json:"legend"`
	FailedSources []calendar.Source    `json:"failedSources"`
	VisibleTypes  []calendar.EventType `json:"visibleTypes"`
}

func (h *Handler) handleMonth(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	today := h.today()
	year, month, ok := h.monthQuery(w, r, today)
	if !ok {
		return
	}
	visible, weekStart, ok := h.viewQuery(w, r)
	if !ok {
		return
	}

	horizon := today.AddDays(defaultUpcomingDays)
	view, failed, err := h.load(r.Context(), user, visible, weekStart, year, today.Year, horizon.Year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}

	grid := view.MonthGrid(year, month)
	api.Success(w, monthResponse{
		Grid:          grid,
		Title:         grid.Title(),
		Weekdays:      grid.WeekdayHeaders(),
		Today:         today,
		TodayEvents:   nonNil(view.Today(today)),
		Upcoming:      nonNil(view.Upcoming(today, defaultUpcomingDays)),
		Legend:        legend(visible),
		FailedSources: failed,
		VisibleTypes:  visible.EnabledTypes(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	day := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := shared.ParseDay(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD", middleware.GetRequestID(r.Context()))
			return
		}
		day = parsed
	}
	visible, weekStart, ok := h.viewQuery(w, r)
	if !ok {
		return
	}

	view, failed, err := h.load(r.Context(), user, visible, weekStart, day.Year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"date":          day,
		"events":        nonNil(view.Day(day)),
		"failedSources": failed,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	days := defaultUpcomingDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxUpcomingDays {
			api.Fail(w, http.StatusBadRequest, "invalid_days", "days must be between 1 and 366", middleware.GetRequestID(r.Context()))
			return
		}
		days = parsed
	}
	visible, weekStart, ok := h.viewQuery(w, r)
	if !ok {
		return
	}

	today := h.today()
	view, failed, err := h.load(r.Context(), user, visible, weekStart, today.Year, today.AddDays(days).Year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"from":          today,
		"days":          days,
		"today":         nonNil(view.Today(today)),
		"events":        nonNil(view.Upcoming(today, days)),
		"failedSources": failed,
	}, middleware.GetRequestID(r.Context()))
}

// load assembles every distinct year and merges them into one view. Failed
// sources are reported once each.
func (h *Handler) load(ctx context.Context, user auth.UserContext, visible calendar.Visibility, weekStart time.Weekday, years ...int) (calendar.View, []calendar.Source, error) {
	seenYear := make(map[int]bool, len(years))
	seenSource := make(map[calendar.Source]bool)
	failed := []calendar.Source{}
	var batches [][]calendar.Event
	for _, year := range years {
		if seenYear[year] {
			continue
		}
		seenYear[year] = true

		snap, err := h.Service.Assemble(ctx, user, year)
		if err != nil {
			slog.Warn("calendar assemble failed", "tenantId", user.TenantID, "year", year, "err", err)
			return calendar.View{}, nil, err
		}
		batches = append(batches, snap.Board.Events())
		for _, src := range snap.Failed {
			if !seenSource[src] {
				seenSource[src] = true
				failed = append(failed, src)
			}
		}
	}
	return calendar.NewView(calendar.Merge(batches...), visible, weekStart), failed, nil
}

func (h *Handler) monthQuery(w http.ResponseWriter, r *http.Request, today civil.Day) (int, time.Month, bool) {
	year, err := shared.QueryYear(r, today)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), middleware.GetRequestID(r.Context()))
		return 0, 0, false
	}
	month, err := shared.QueryMonth(r, today)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_month", err.Error(), middleware.GetRequestID(r.Context()))
		return 0, 0, false
	}
	return year, month, true
}

// viewQuery reads ?types= (comma separated visible types) and ?weekStart=.
func (h *Handler) viewQuery(w http.ResponseWriter, r *http.Request) (calendar.Visibility, time.Weekday, bool) {
	visible, err := calendar.ParseVisibility(r.URL.Query().Get("types"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_types", err.Error(), middleware.GetRequestID(r.Context()))
		return calendar.Visibility{}, 0, false
	}
	weekStart := h.WeekStart
	if raw := strings.TrimSpace(r.URL.Query().Get("weekStart")); raw != "" {
		weekStart, err = calendar.ParseWeekday(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_week_start", err.Error(), middleware.GetRequestID(r.Context()))
			return calendar.Visibility{}, 0, false
		}
	}
	return visible, weekStart, true
}

func (h *Handler) today() civil.Day {
	return civil.Today(h.Now(), h.Location)
}

func legend(visible calendar.Visibility) []legendEntry {
	out := make([]legendEntry, 0, len(calendar.AllTypes))
	for _, t := range calendar.AllTypes {
		out = append(out, legendEntry{Type: t, Color: t.Color(), Visible: visible.Enabled(t)})
	}
	return out
}

func nonNil(events []calendar.Event) []calendar.Event {
	if events == nil {
		return []calendar.Event{}
	}
	return events
}
