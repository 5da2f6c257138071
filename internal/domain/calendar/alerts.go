package calendar

import (
	"context"
	"fmt"
	"strings"

	"onehr/internal/domain/auth"
	"onehr/internal/domain/civil"
	"onehr/internal/domain/notifications"
)

const DefaultAlertLeadDays = 14

// AlertSink stores one notification per recipient. created is false when a
// notification with the same dedup key already exists.
type AlertSink interface {
	Create(ctx context.Context, tenantID, userID string, in notifications.Input) (id string, created bool, err error)
}

type RecipientSource interface {
	UserIDsByRole(ctx context.Context, tenantID, roleName string) ([]string, error)
}

type Alerter struct {
	Calendar   *Service
	Sink       AlertSink
	Recipients RecipientSource
	LeadDays   int
}

type AlertRun struct {
	From       civil.Day `json:"from"`
	To         civil.Day `json:"to"`
	Events     int       `json:"events"`
	Recipients int       `json:"recipients"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
}

// Generate notifies every HR user of the birthdays, work anniversaries and
// holidays falling in [today, today+LeadDays]. Alerts carry a dedup key per
// event, so running it repeatedly never notifies twice.
func (a *Alerter) Generate(ctx context.Context, tenantID string, today civil.Day) (AlertRun, error) {
	lead := a.LeadDays
	if lead <= 0 {
		lead = DefaultAlertLeadDays
	}
	run := AlertRun{From: today, To: today.AddDays(lead)}

	events, err := a.upcoming(ctx, tenantID, run.From, run.To)
	if err != nil {
		return run, err
	}
	run.Events = len(events)

	recipients, err := a.Recipients.UserIDsByRole(ctx, tenantID, auth.RoleHR)
	if err != nil {
		return run, fmt.Errorf("list alert recipients: %w", err)
	}
	run.Recipients = len(recipients)

	for _, ev := range events {
		in := alertFor(ev, today)
		for _, userID := range recipients {
			_, created, err := a.Sink.Create(ctx, tenantID, userID, in)
			if err != nil {
				return run, fmt.Errorf("create alert %s: %w", ev.ID, err)
			}
			if created {
				run.Created++
			} else {
				run.Skipped++
			}
		}
	}
	return run, nil
}

func (a *Alerter) upcoming(ctx context.Context, tenantID string, from, to civil.Day) ([]Event, error) {
	roster, err := a.Calendar.Employees.Roster(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	var batches [][]Event
	for year := from.Year; year <= to.Year; year++ {
		hols, err := a.Calendar.Holidays.ListHolidays(ctx, tenantID, year)
		if err != nil {
			return nil, fmt.Errorf("load holidays %d: %w", year, err)
		}
		batches = append(batches, Project(roster, year), FromHolidays(hols))
	}
	view := NewView(Merge(batches...), AllVisible(), 0)
	return view.Between(from, to), nil
}

func alertFor(ev Event, today civil.Day) notifications.Input {
	days := today.DaysUntil(ev.Date)
	due := ev.Date
	in := notifications.Input{
		Type:        notifications.TypeCalendarAlert,
		Category:    alertCategory(ev.Type),
		Title:       alertTitle(ev),
		Message:     fmt.Sprintf("%s %s (%s).", ev.Title, whenLabel(days), ev.Date),
		Priority:    alertPriority(days),
		DueDate:     &due,
		ActionURL:   "/hr-calendar?date=" + ev.Date.String(),
		ActionLabel: "View calendar",
		DedupKey:    "calendar-alert:" + ev.ID,
	}
	switch ev.Type {
	case TypeHoliday:
		in.RelatedEntityType = "holiday"
		in.RelatedEntityID = ev.SourceID
	default:
		in.RelatedEntityType = "employee"
		in.RelatedEntityID = ev.EmployeeID
	}
	return in
}

func alertCategory(t EventType) string {
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

func alertTitle(ev Event) string {
	switch ev.Type {
	case TypeBirthday:
		return "Upcoming birthday: " + ev.EmployeeName
	case TypeAnniversary:
		return fmt.Sprintf("Upcoming work anniversary: %s (%s)", ev.EmployeeName, pluralize(ev.YearsOfService, "year"))
	default:
		return "Upcoming holiday: " + ev.Title
	}
}

func whenLabel(days int) string {
	switch days {
	case 0:
		return "is today"
	case 1:
		return "is tomorrow"
	default:
		return "is in " + pluralize(days, "day")
	}
}

func alertPriority(days int) string {
	switch {
	case days <= 1:
		return notifications.PriorityHigh
	case days <= 7:
		return notifications.PriorityMedium
	default:
		return notifications.PriorityLow
	}
}
