package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"onehr/internal/domain/auth"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
)

type EmployeeSource interface {
	Roster(ctx context.Context, tenantID string) ([]employees.Employee, error)
}

type HolidaySource interface {
	ListHolidays(ctx context.Context, tenantID string, year int) ([]holidays.Holiday, error)
}

type NotificationSource interface {
	ListDue(ctx context.Context, tenantID, userID string, from, to civil.Day) ([]notifications.Notification, error)
}

// AssembleRecorder observes each assembled calendar.
type AssembleRecorder interface {
	RecordAssemble(failed []Source, elapsed time.Duration)
}

type Service struct {
	Employees     EmployeeSource
	Holidays      HolidaySource
	Notifications NotificationSource
	Store         StoreAPI
	Recorder      AssembleRecorder
}

func NewService(emps EmployeeSource, hols HolidaySource, notifs NotificationSource, store StoreAPI) *Service {
	return &Service{
		Employees:     emps,
		Holidays:      hols,
		Notifications: notifs,
		Store:         store,
	}
}

// Snapshot is the calendar of one year as seen by one user. Sources that
// failed to load are listed in Failed and contribute no events.
type Snapshot struct {
	Year   int
	Board  *Board
	Failed []Source
}

// Assemble loads every source of year concurrently into a fresh Board. A
// failing source is logged and left empty; only cancellation of ctx fails
// the whole call.
func (s *Service) Assemble(ctx context.Context, user auth.UserContext, year int) (Snapshot, error) {
	started := time.Now()
	snap := Snapshot{Year: year, Board: NewBoard()}
	from := civil.Day{Year: year, Month: time.January, Day: 1}
	to := civil.Day{Year: year, Month: time.December, Day: 31}

	loaders := map[Source]func(context.Context) ([]Event, error){
		SourceEmployees: func(ctx context.Context) ([]Event, error) {
			roster, err := s.Employees.Roster(ctx, user.TenantID)
			if err != nil {
				return nil, err
			}
			return Project(roster, year), nil
		},
		SourceHolidays: func(ctx context.Context) ([]Event, error) {
			list, err := s.Holidays.ListHolidays(ctx, user.TenantID, year)
			if err != nil {
				return nil, err
			}
			return FromHolidays(list), nil
		},
		SourceNotifications: func(ctx context.Context) ([]Event, error) {
			list, err := s.Notifications.ListDue(ctx, user.TenantID, user.UserID, from, to)
			if err != nil {
				return nil, err
			}
			return FromNotifications(list), nil
		},
		SourceCustom: func(ctx context.Context) ([]Event, error) {
			list, err := s.Store.ListCustomEvents(ctx, user.TenantID, from, to)
			if err != nil {
				return nil, err
			}
			return ExpandCustom(list, from, to), nil
		},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, src := range Sources {
		src, load := src, loaders[src]
		g.Go(func() error {
			events, err := load(ctx)
			if err == nil {
				err = snap.Board.Replace(src, events)
			}
			if err != nil {
				slog.Warn("calendar source failed", "source", src, "tenantId", user.TenantID, "year", year, "err", err)
				mu.Lock()
				snap.Failed = append(snap.Failed, src)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if s.Recorder != nil {
		s.Recorder.RecordAssemble(snap.Failed, time.Since(started))
	}
	return snap, nil
}

// FromHolidays converts holiday rows into calendar events.
func FromHolidays(list []holidays.Holiday) []Event {
	out := make([]Event, 0, len(list))
	for _, h := range list {
		if h.ID == "" || h.Date.IsZero() {
			continue
		}
		out = append(out, Event{
			ID:          HolidayID(h.ID),
			Type:        TypeHoliday,
			Title:       h.Name,
			Date:        h.Date,
			Description: h.Description,
			Color:       TypeHoliday.Color(),
			SourceID:    h.ID,
		})
	}
	return out
}

func (s *Service) ListCustom(ctx context.Context, tenantID string, from, to civil.Day) ([]CustomEvent, error) {
	return s.Store.ListCustomEvents(ctx, tenantID, from, to)
}

func (s *Service) GetCustom(ctx context.Context, tenantID, id string) (*CustomEvent, error) {
	rowID, err := s.customRowID(id)
	if err != nil {
		return nil, err
	}
	return s.Store.GetCustomEvent(ctx, tenantID, rowID)
}

func (s *Service) CreateCustom(ctx context.Context, user auth.UserContext, ev CustomEvent) (*CustomEvent, error) {
	ev, err := ev.Normalize()
	if err != nil {
		return nil, err
	}
	id, err := s.Store.CreateCustomEvent(ctx, user.TenantID, user.UserID, ev)
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	return s.Store.GetCustomEvent(ctx, user.TenantID, id)
}

// UpdateCustom accepts a calendar event id (including an occurrence id of a
// recurring event) or a bare row id.
func (s *Service) UpdateCustom(ctx context.Context, user auth.UserContext, id string, ev CustomEvent) (*CustomEvent, error) {
	rowID, err := s.customRowID(id)
	if err != nil {
		return nil, err
	}
	ev, err = ev.Normalize()
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateCustomEvent(ctx, user.TenantID, rowID, ev); err != nil {
		return nil, err
	}
	return s.Store.GetCustomEvent(ctx, user.TenantID, rowID)
}

func (s *Service) DeleteCustom(ctx context.Context, user auth.UserContext, id string) error {
	rowID, err := s.customRowID(id)
	if err != nil {
		return err
	}
	return s.Store.DeleteCustomEvent(ctx, user.TenantID, rowID)
}

func (s *Service) customRowID(id string) (string, error) {
	ref, err := ParseEventRef(id)
	if err != nil {
		return "", err
	}
	if ref.Type != TypeCustom {
		return "", fmt.Errorf("%w: %q is a %s event", ErrUnknownEvent, id, ref.Type)
	}
	return ref.RowID, nil
}
