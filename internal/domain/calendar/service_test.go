package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onehr/internal/domain/auth"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
)

type stubEmployees struct {
	roster []employees.Employee
	err    error
}

func (s stubEmployees) Roster(ctx context.Context, tenantID string) ([]employees.Employee, error) {
	return s.roster, s.err
}

type stubHolidays struct {
	byYear map[int][]holidays.Holiday
	err    error
}

func (s stubHolidays) ListHolidays(ctx context.Context, tenantID string, year int) ([]holidays.Holiday, error) {
	return s.byYear[year], s.err
}

type stubNotifications struct {
	list []notifications.Notification
	err  error
}

func (s stubNotifications) ListDue(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]notifications.Notification, error) {
	var out []notifications.Notification
	for _, n := range s.list {
		if n.DueDate != nil && !n.DueDate.Before(from) && !n.DueDate.After(to) {
			out = append(out, n)
		}
	}
	return out, s.err
}

type memoryEvents struct {
	mu   sync.Mutex
	rows map[string]CustomEvent
	err  error
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{rows: map[string]CustomEvent{}}
}

func (m *memoryEvents) ListCustomEvents(ctx context.Context, tenantID string, from, to civil.Day) ([]CustomEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []CustomEvent
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryEvents) GetCustomEvent(ctx context.Context, tenantID, eventID string) (*CustomEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &row, nil
}

func (m *memoryEvents) CreateCustomEvent(ctx context.Context, tenantID, userID string, ev CustomEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = customUUID
	ev.CreatedBy = userID
	m.rows[ev.ID] = ev
	return ev.ID, nil
}

func (m *memoryEvents) UpdateCustomEvent(ctx context.Context, tenantID, eventID string, ev CustomEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[eventID]; !ok {
		return ErrEventNotFound
	}
	ev.ID = eventID
	m.rows[eventID] = ev
	return nil
}

func (m *memoryEvents) DeleteCustomEvent(ctx context.Context, tenantID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[eventID]; !ok {
		return ErrEventNotFound
	}
	delete(m.rows, eventID)
	return nil
}

type recorder struct {
	failed []Source
}

func (r *recorder) RecordAssemble(failed []Source, elapsed time.Duration) {
	r.failed = failed
}

var hrUser = auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: auth.RoleHR}

func newTestService() (*Service, *memoryEvents) {
	due := civil.MustParse("2025-06-01")
	events := newMemoryEvents()
	events.rows[customUUID] = CustomEvent{ID: customUUID, Title: "Offsite", Date: due}
	svc := NewService(
		stubEmployees{roster: []employees.Employee{{ID: "e1", FirstName: "Ada", DateOfBirth: "1990-03-15", StartDate: "2020-03-15"}}},
		stubHolidays{byYear: map[int][]holidays.Holiday{2025: {{ID: "h1", Name: "Independence Day", Date: civil.MustParse("2025-07-04")}}}},
		stubNotifications{list: []notifications.Notification{
			{ID: "n1", Title: "License renewal", Category: "Licensing", DueDate: &due},
			{ID: "n2", Title: "Undated"},
		}},
		events,
	)
	return svc, events
}

func TestAssembleMergesAllSources(t *testing.T) {
	svc, _ := newTestService()
	rec := &recorder{}
	svc.Recorder = rec

	snap, err := svc.Assemble(context.Background(), hrUser, 2025)
	require.NoError(t, err)
	assert.Empty(t, snap.Failed)
	assert.Empty(t, rec.failed)
	assert.Equal(t, []string{
		"anniversary-e1-2025",
		"birthday-e1-2025",
		"custom-" + customUUID,
		"holiday-h1",
		"notif-n1",
	}, ids(snap.Board.Events()))
}

type windowedNotifications struct {
	stubNotifications
	from, to *civil.Day
}

func (w windowedNotifications) ListDue(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]notifications.Notification, error) {
	*w.from, *w.to = from, to
	return w.stubNotifications.ListDue(ctx, tenantID, userID, from, to)
}

func TestAssembleKeepsOldDueNotifications(t *testing.T) {
	svc, _ := newTestService()
	due := civil.MustParse("2025-06-01")
	var inbox []notifications.Notification
	for i := 0; i < 600; i++ {
		inbox = append(inbox, notifications.Notification{ID: fmt.Sprintf("fyi-%d", i), Title: "FYI"})
	}
	inbox = append(inbox, notifications.Notification{ID: "oldest", Title: "License renewal", Category: "Licensing", DueDate: &due})
	var from, to civil.Day
	svc.Notifications = windowedNotifications{stubNotifications: stubNotifications{list: inbox}, from: &from, to: &to}

	snap, err := svc.Assemble(context.Background(), hrUser, 2025)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", from.String())
	assert.Equal(t, "2025-12-31", to.String())

	ev, ok := snap.Board.Get("notif-oldest")
	require.True(t, ok)
	assert.Equal(t, TypeLicense, ev.Type)
	assert.Equal(t, "2025-06-01", ev.Date.String())
}

func TestAssembleReportsFailedSource(t *testing.T) {
	svc, _ := newTestService()
	svc.Holidays = stubHolidays{err: errors.New("connection reset")}

	snap, err := svc.Assemble(context.Background(), hrUser, 2025)
	require.NoError(t, err)
	assert.Equal(t, []Source{SourceHolidays}, snap.Failed)
	assert.Equal(t, 4, snap.Board.Len())
}

func TestAssembleCancelled(t *testing.T) {
	svc, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Assemble(ctx, hrUser, 2025)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomEventLifecycle(t *testing.T) {
	svc, events := newTestService()
	delete(events.rows, customUUID)
	ctx := context.Background()

	created, err := svc.CreateCustom(ctx, hrUser, CustomEvent{Title: " Town hall ", Date: civil.MustParse("2025-09-10")})
	require.NoError(t, err)
	assert.Equal(t, "Town hall", created.Title)
	assert.Equal(t, "u1", created.CreatedBy)

	updated, err := svc.UpdateCustom(ctx, hrUser, CustomID(created.ID), CustomEvent{Title: "Town hall", Date: civil.MustParse("2025-09-11")})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-11", updated.Date.String())

	_, err = svc.CreateCustom(ctx, hrUser, CustomEvent{})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	require.NoError(t, svc.DeleteCustom(ctx, hrUser, created.ID))
	assert.ErrorIs(t, svc.DeleteCustom(ctx, hrUser, created.ID), ErrEventNotFound)
}

func TestCustomEventRejectsDerivedIDs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateCustom(ctx, hrUser, "birthday-e1-2025", CustomEvent{Title: "x", Date: civil.MustParse("2025-01-01")})
	assert.ErrorIs(t, err, ErrReadOnlyEvent)
	assert.ErrorIs(t, svc.DeleteCustom(ctx, hrUser, "anniversary-e1-2025"), ErrReadOnlyEvent)
	assert.ErrorIs(t, svc.DeleteCustom(ctx, hrUser, "holiday-"+customUUID), ErrUnknownEvent)
}
