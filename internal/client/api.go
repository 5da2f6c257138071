package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
)

var ErrNothingVisible = errors.New("no event types are visible")

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      struct {
		ID       string `json:"id"`
		TenantID string `json:"tenantId"`
		RoleID   string `json:"roleId"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token. The client does not start
// using the token on its own; wrap it in a StaticToken.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out Session
	data, err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{"email": email, "password": password})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func (c *Client) Employees(ctx context.Context) ([]employees.Employee, error) {
	data, err := c.do(ctx, http.MethodGet, "/employees", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[employees.Employee](data, "employees", "data")
}

func (c *Client) Holidays(ctx context.Context, year int) ([]holidays.Holiday, error) {
	data, err := c.do(ctx, http.MethodGet, "/hr-calendar/holidays", yearQuery(year), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[holidays.Holiday](data, "holidays", "data")
}

// Notifications lists every notification of the signed-in user due within
// year. The due-date filter bypasses inbox paging.
func (c *Client) Notifications(ctx context.Context, year int) ([]notifications.Notification, error) {
	q := url.Values{}
	q.Set("dueFrom", civil.Day{Year: year, Month: time.January, Day: 1}.String())
	q.Set("dueTo", civil.Day{Year: year, Month: time.December, Day: 31}.String())
	data, err := c.do(ctx, http.MethodGet, "/notifications", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[notifications.Notification](data, "notifications", "data")
}

// CustomOccurrences lists the custom events of year already expanded into
// dated occurrences.
func (c *Client) CustomOccurrences(ctx context.Context, year int) ([]calendar.Event, error) {
	data, err := c.do(ctx, http.MethodGet, "/calendar-events", yearQuery(year), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[calendar.Event](data, "occurrences")
}

func (c *Client) InitializeUSHolidays(ctx context.Context, year int) (holidays.InitResult, error) {
	var out holidays.InitResult
	data, err := c.do(ctx, http.MethodPost, "/hr-calendar/initialize-us-holidays", yearQuery(year), nil)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

type HolidayInput struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Region      string `json:"region,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateHoliday(ctx context.Context, in HolidayInput) (holidays.Holiday, error) {
	var out holidays.Holiday
	data, err := c.do(ctx, http.MethodPost, "/hr-calendar/holidays", nil, in)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func (c *Client) GenerateCalendarAlerts(ctx context.Context) (calendar.AlertRun, error) {
	var out calendar.AlertRun
	data, err := c.do(ctx, http.MethodPost, "/notifications/generate-calendar-alerts", nil, nil)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
	return err
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
	return err
}

// EventInput is a custom calendar event. Type defaults to "custom".
type EventInput struct {
	Type        calendar.EventType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Date        string             `json:"date"`
	Color       string             `json:"color,omitempty"`
	Priority    string             `json:"priority,omitempty"`
	Recurrence  string             `json:"recurrence,omitempty"`
}

func (in EventInput) withDefaults() EventInput {
	if in.Type == "" {
		in.Type = calendar.TypeCustom
	}
	return in
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (calendar.CustomEvent, error) {
	var out calendar.CustomEvent
	data, err := c.do(ctx, http.MethodPost, "/calendar-events", nil, in.withDefaults())
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

// UpdateEvent accepts any calendar event id. Birthday, anniversary and
// notification ids come back as a read_only_event APIError.
func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (calendar.CustomEvent, error) {
	var out calendar.CustomEvent
	data, err := c.do(ctx, http.MethodPut, "/calendar-events/"+url.PathEscape(id), nil, in.withDefaults())
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/calendar-events/"+url.PathEscape(id), nil, nil)
	return err
}

type ExportFormat string

const (
	ExportICS ExportFormat = "ics"
	ExportPDF ExportFormat = "pdf"
)

// Export downloads the month in format, filtered to visible.
func (c *Client) Export(ctx context.Context, year int, month time.Month, format ExportFormat, visible calendar.Visibility) ([]byte, error) {
	if len(visible.EnabledTypes()) == 0 {
		return nil, ErrNothingVisible
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(int(month)))
	q.Set("format", string(format))
	if types := visibleTypes(visible); types != "" {
		q.Set("types", types)
	}
	raw, header, err := c.send(ctx, http.MethodGet, "/hr-calendar/export", q, nil)
	if err != nil {
		return nil, err
	}
	if ct := header.Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		return nil, fmt.Errorf("export: unexpected content type %q", ct)
	}
	return raw, nil
}

// DayEvents asks the server for the detail of one day.
func (c *Client) DayEvents(ctx context.Context, day civil.Day, visible calendar.Visibility) ([]calendar.Event, error) {
	if len(visible.EnabledTypes()) == 0 {
		return []calendar.Event{}, nil
	}
	q := url.Values{}
	q.Set("date", day.String())
	if types := visibleTypes(visible); types != "" {
		q.Set("types", types)
	}
	data, err := c.do(ctx, http.MethodGet, "/hr-calendar/day", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[calendar.Event](data, "events")
}

// visibleTypes is empty when every type is shown. Callers handle the
// nothing-visible case themselves since an empty list means all types.
func visibleTypes(v calendar.Visibility) string {
	enabled := v.EnabledTypes()
	if len(enabled) == len(calendar.AllTypes) {
		return ""
	}
	return v.String()
}
