// Package calendar builds the HR calendar: recurring birthday and work
// anniversary events projected from the roster, holidays, due-dated
// notifications and custom events, merged into one collection keyed by a
// synthetic id and rendered into month, day and rolling-window views.
package calendar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"onehr/internal/domain/civil"
	"onehr/internal/domain/notifications"
)

type EventType string

const (
	TypeBirthday      EventType = "birthday"
	TypeAnniversary   EventType = "anniversary"
	TypeHoliday       EventType = "holiday"
	TypeCustom        EventType = "custom"
	TypeNotification  EventType = "notification"
	TypeLicense       EventType = "license"
	TypeCertification EventType = "certification"
	TypeImmigration   EventType = "immigration"
)

// AllTypes is also the display order of events sharing a day.
var AllTypes = []EventType{
	TypeHoliday,
	TypeImmigration,
	TypeLicense,
	TypeCertification,
	TypeNotification,
	TypeBirthday,
	TypeAnniversary,
	TypeCustom,
}

var typeColors = map[EventType]string{
	TypeBirthday:      "#ec4899",
	TypeAnniversary:   "#8b5cf6",
	TypeHoliday:       "#ef4444",
	TypeCustom:        "#3b82f6",
	TypeNotification:  "#f59e0b",
	TypeLicense:       "#10b981",
	TypeCertification: "#06b6d4",
	TypeImmigration:   "#f97316",
}

var (
	ErrReadOnlyEvent = errors.New("birthday, anniversary and notification events are generated automatically and cannot be edited or deleted")
	ErrUnknownEvent  = errors.New("unknown calendar event")
	ErrUnknownType   = errors.New("unknown event type")
)

func ParseType(value string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := typeColors[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, value)
	}
	return t, nil
}

func (t EventType) Color() string {
	return typeColors[t]
}

// Derived types are computed from other records and never authored.
func (t EventType) Derived() bool {
	switch t {
	case TypeCustom, TypeHoliday:
		return false
	default:
		return true
	}
}

// Event is the render-ready calendar entry. SourceID is the backing row id
// (holiday, custom event or notification) when there is one.
type Event struct {
	ID             string                      `json:"id"`
	Type           EventType                   `json:"type"`
	Title          string                      `json:"title"`
	Date           civil.Day                   `json:"date"`
	EmployeeID     string                      `json:"employeeId,omitempty"`
	EmployeeName   string                      `json:"employeeName,omitempty"`
	Description    string                      `json:"description,omitempty"`
	YearsOfService int                         `json:"yearsOfService,omitempty"`
	Color          string                      `json:"color,omitempty"`
	Priority       string                      `json:"priority,omitempty"`
	SourceID       string                      `json:"sourceId,omitempty"`
	Recurring      bool                        `json:"recurring,omitempty"`
	Notification   *notifications.Notification `json:"notificationData,omitempty"`
}

func (e Event) Editable() bool {
	return !e.Type.Derived()
}

const (
	prefixBirthday     = "birthday-"
	prefixAnniversary  = "anniversary-"
	prefixHoliday      = "holiday-"
	prefixCustom       = "custom-"
	prefixNotification = "notif-"
)

func BirthdayID(employeeID string, year int) string {
	return fmt.Sprintf("%s%s-%d", prefixBirthday, employeeID, year)
}

func AnniversaryID(employeeID string, year int) string {
	return fmt.Sprintf("%s%s-%d", prefixAnniversary, employeeID, year)
}

func HolidayID(holidayID string) string {
	return prefixHoliday + holidayID
}

func CustomID(eventID string) string {
	return prefixCustom + eventID
}

func OccurrenceID(eventID string, day civil.Day) string {
	return fmt.Sprintf("%s%s-%04d%02d%02d", prefixCustom, eventID, day.Year, int(day.Month), day.Day)
}

func NotificationID(notificationID string) string {
	return prefixNotification + notificationID
}

// EventRef identifies the backing row behind an editable calendar event.
type EventRef struct {
	Type  EventType
	RowID string
}

// ParseEventRef resolves a calendar event id (or a bare custom event uuid) to
// the row it edits. Derived ids yield ErrReadOnlyEvent.
func ParseEventRef(id string) (EventRef, error) {
	id = strings.TrimSpace(id)
	switch {
	case strings.HasPrefix(id, prefixBirthday),
		strings.HasPrefix(id, prefixAnniversary),
		strings.HasPrefix(id, prefixNotification):
		return EventRef{}, ErrReadOnlyEvent
	case strings.HasPrefix(id, prefixHoliday):
		if rowID, ok := leadingUUID(strings.TrimPrefix(id, prefixHoliday)); ok {
			return EventRef{Type: TypeHoliday, RowID: rowID}, nil
		}
	case strings.HasPrefix(id, prefixCustom):
		if rowID, ok := leadingUUID(strings.TrimPrefix(id, prefixCustom)); ok {
			return EventRef{Type: TypeCustom, RowID: rowID}, nil
		}
	default:
		if parsed, err := uuid.Parse(id); err == nil {
			return EventRef{Type: TypeCustom, RowID: parsed.String()}, nil
		}
	}
	return EventRef{}, fmt.Errorf("%w: %q", ErrUnknownEvent, id)
}

// leadingUUID accepts "<uuid>" or "<uuid>-<suffix>" (recurrence occurrences).
func leadingUUID(value string) (string, bool) {
	const uuidLen = 36
	if len(value) < uuidLen || (len(value) > uuidLen && value[uuidLen] != '-') {
		return "", false
	}
	parsed, err := uuid.Parse(value[:uuidLen])
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
