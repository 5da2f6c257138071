package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
)

type fakeFetcher struct {
	mu       sync.Mutex
	roster   []employees.Employee
	holidays map[int][]holidays.Holiday
	notifs   []notifications.Notification
	custom   map[int][]calendar.Event
	errs     map[calendar.Source]error

	// gate, when set, blocks the holiday fetch until it is closed, ignoring
	// ctx so late results can be observed.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) err(src calendar.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[src]
}

func (f *fakeFetcher) setErr(src calendar.Source, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[calendar.Source]error)
	}
	f.errs[src] = err
}

func (f *fakeFetcher) Employees(ctx context.Context) ([]employees.Employee, error) {
	if err := f.err(calendar.SourceEmployees); err != nil {
		return nil, err
	}
	return f.roster, nil
}

func (f *fakeFetcher) Holidays(ctx context.Context, year int) ([]holidays.Holiday, error) {
	if f.gate != nil {
		if f.started != nil {
			f.started <- struct{}{}
		}
		<-f.gate
	}
	if err := f.err(calendar.SourceHolidays); err != nil {
		return nil, err
	}
	return f.holidays[year], nil
}

func (f *fakeFetcher) Notifications(ctx context.Context, year int) ([]notifications.Notification, error) {
	if err := f.err(calendar.SourceNotifications); err != nil {
		return nil, err
	}
	var out []notifications.Notification
	for _, n := range f.notifs {
		if n.DueDate != nil && n.DueDate.Year == year {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeFetcher) CustomOccurrences(ctx context.Context, year int) ([]calendar.Event, error) {
	if err := f.err(calendar.SourceCustom); err != nil {
		return nil, err
	}
	return f.custom[year], nil
}

func dayPtr(value string) *civil.Day {
	d := civil.MustParse(value)
	return &d
}

func fixtureFetcher() *fakeFetcher {
	return &fakeFetcher{
		roster: []employees.Employee{{
			ID: "e1", FirstName: "Maria", LastName: "Lopez",
			DateOfBirth: "1990-03-15", StartDate: "2020-03-15",
		}},
		holidays: map[int][]holidays.Holiday{
			2025: {{ID: "h1", Name: "Independence Day", Date: civil.MustParse("2025-07-04")}},
			2026: {{ID: "h2", Name: "New Year's Day", Date: civil.MustParse("2026-01-01")}},
		},
		notifs: []notifications.Notification{{
			ID: "n1", Title: "License renewal", Category: "Licensing", DueDate: dayPtr("2025-06-01"),
		}},
		custom: map[int][]calendar.Event{
			2025: {{ID: "custom-c1", Type: calendar.TypeCustom, Title: "Team offsite", Date: civil.MustParse("2025-06-01")}},
		},
	}
}

func eventIDs(events []calendar.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestLoaderRefreshMergesSources(t *testing.T) {
	l := NewLoader(fixtureFetcher(), 2025)
	defer l.Close()

	res, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Applied, len(calendar.Sources))
	assert.Empty(t, res.Failed)

	view := l.View(calendar.AllVisible(), time.Sunday)

	march := view.Day(civil.MustParse("2025-03-15"))
	require.Len(t, march, 2)
	byType := map[calendar.EventType]calendar.Event{}
	for _, ev := range march {
		byType[ev.Type] = ev
	}
	assert.Equal(t, "Maria Lopez's Birthday", byType[calendar.TypeBirthday].Title)
	assert.Equal(t, "Maria Lopez - 5 years Work Anniversary", byType[calendar.TypeAnniversary].Title)
	assert.Equal(t, 5, byType[calendar.TypeAnniversary].YearsOfService)

	june := view.Day(civil.MustParse("2025-06-01"))
	require.Len(t, june, 2)
	types := []calendar.EventType{june[0].Type, june[1].Type}
	assert.ElementsMatch(t, []calendar.EventType{calendar.TypeLicense, calendar.TypeCustom}, types)

	hidden := l.View(calendar.AllVisible().Hide(calendar.TypeLicense), time.Sunday)
	assert.Len(t, hidden.Day(civil.MustParse("2025-06-01")), 1)
}

func TestLoaderRefreshIsIdempotent(t *testing.T) {
	l := NewLoader(fixtureFetcher(), 2025)
	defer l.Close()

	_, err := l.Refresh(context.Background())
	require.NoError(t, err)
	first := eventIDs(l.Board.Events())

	_, err = l.Refresh(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(first, eventIDs(l.Board.Events())); diff != "" {
		t.Fatalf("second refresh changed the board (-first +second):\n%s", diff)
	}
}

func TestLoaderFailedSourceKeepsStaleSlice(t *testing.T) {
	f := fixtureFetcher()
	l := NewLoader(f, 2025)
	defer l.Close()

	_, err := l.Refresh(context.Background())
	require.NoError(t, err)

	f.setErr(calendar.SourceHolidays, errors.New("503 from upstream"))
	f.roster = append(f.roster, employees.Employee{ID: "e2", FirstName: "Sam", DateOfBirth: "1985-11-02"})

	res, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []calendar.Source{calendar.SourceHolidays}, res.Failed)

	_, ok := l.Board.Get(calendar.HolidayID("h1"))
	assert.True(t, ok, "holiday from the previous refresh should survive a failed fetch")
	_, ok = l.Board.Get(calendar.BirthdayID("e2", 2025))
	assert.True(t, ok, "other sources still refresh")
	assert.Contains(t, l.Failed(), calendar.SourceHolidays)

	f.setErr(calendar.SourceHolidays, nil)
	_, err = l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, l.Failed())
	assert.False(t, l.LoadedAt(calendar.SourceHolidays).IsZero())
}

func TestLoaderFirstFailureLeavesSourceEmpty(t *testing.T) {
	f := fixtureFetcher()
	f.setErr(calendar.SourceNotifications, errors.New("boom"))
	l := NewLoader(f, 2025)
	defer l.Close()

	res, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []calendar.Source{calendar.SourceNotifications}, res.Failed)
	_, ok := l.Board.Get(calendar.NotificationID("n1"))
	assert.False(t, ok)
	assert.True(t, l.LoadedAt(calendar.SourceNotifications).IsZero())
}

func TestLoaderSpansYears(t *testing.T) {
	l := NewLoader(fixtureFetcher(), 2026, 2025, 2025)
	defer l.Close()
	assert.Equal(t, []int{2025, 2026}, l.Years())

	_, err := l.Refresh(context.Background())
	require.NoError(t, err)

	view := l.View(calendar.AllVisible(), time.Sunday)
	upcoming := view.Upcoming(civil.MustParse("2025-12-29"), 7)
	require.Len(t, upcoming, 1)
	assert.Equal(t, calendar.HolidayID("h2"), upcoming[0].ID)

	_, ok := l.Board.Get(calendar.BirthdayID("e1", 2026))
	assert.True(t, ok)
}

func TestLoaderDropsResultsAfterClose(t *testing.T) {
	f := fixtureFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
	l := NewLoader(f, 2025)

	done := make(chan error, 1)
	go func() {
		_, err := l.Refresh(context.Background())
		done <- err
	}()

	<-f.started
	l.Close()
	close(f.gate)

	err := <-done
	assert.ErrorIs(t, err, ErrLoaderClosed)
	_, ok := l.Board.Get(calendar.HolidayID("h1"))
	assert.False(t, ok, "late holiday result must be dropped after Close")

	_, err = l.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrLoaderClosed)
	l.Close()
}

func TestLoaderDropsResultsFromPreviousYears(t *testing.T) {
	f := fixtureFetcher()
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
	l := NewLoader(f, 2025)
	defer l.Close()

	done := make(chan RefreshResult, 1)
	go func() {
		res, _ := l.Refresh(context.Background())
		done <- res
	}()

	<-f.started
	l.SetYears(2026)
	close(f.gate)

	res := <-done
	assert.Len(t, res.Stale, len(calendar.Sources)-len(res.Applied))
	assert.Contains(t, res.Stale, calendar.SourceHolidays)
	_, ok := l.Board.Get(calendar.HolidayID("h1"))
	assert.False(t, ok)
}

func TestLoaderRefreshHonoursCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(fixtureFetcher(), 2025)
	defer l.Close()

	_, err := l.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
