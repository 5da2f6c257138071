package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"onehr/internal/domain/civil"
	"onehr/internal/domain/notifications"
)

// maxOccurrences caps how many instances one recurring event may expand to
// inside a single window.
const maxOccurrences = 400

var (
	ErrInvalidEvent  = errors.New("invalid calendar event")
	ErrEventNotFound = errors.New("calendar event not found")

	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// CustomEvent is an authored calendar entry. Recurrence is an optional
// RFC 5545 RRULE anchored at Date.
type CustomEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        civil.Day `json:"date"`
	Color       string    `json:"color,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Recurrence  string    `json:"recurrence,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return fmt.Sprintf("%s: %s", ErrInvalidEvent, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEvent
}

// Normalize trims the event and checks it before anything is written.
func (c CustomEvent) Normalize() (CustomEvent, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Color = strings.TrimSpace(c.Color)
	c.Priority = strings.ToLower(strings.TrimSpace(c.Priority))
	c.Recurrence = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.Recurrence), "RRULE:"))

	var issues []FieldError
	if c.Title == "" {
		issues = append(issues, FieldError{Field: "title", Reason: "is required"})
	} else if len(c.Title) > 200 {
		issues = append(issues, FieldError{Field: "title", Reason: "must be at most 200 characters"})
	}
	if c.Date.IsZero() {
		issues = append(issues, FieldError{Field: "date", Reason: "is required"})
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		issues = append(issues, FieldError{Field: "color", Reason: "must be a #rrggbb value"})
	}
	if c.Priority != "" && !notifications.ValidPriority(c.Priority) {
		issues = append(issues, FieldError{Field: "priority", Reason: "must be low, medium, high or urgent"})
	}
	if c.Recurrence != "" {
		if _, err := rrule.StrToROption(c.Recurrence); err != nil {
			issues = append(issues, FieldError{Field: "recurrence", Reason: "must be a valid RRULE"})
		}
	}
	if len(issues) > 0 {
		return c, &ValidationError{Fields: issues}
	}
	return c, nil
}

func (c CustomEvent) event(id string, day civil.Day) Event {
	color := c.Color
	if color == "" {
		color = TypeCustom.Color()
	}
	return Event{
		ID:          id,
		Type:        TypeCustom,
		Title:       c.Title,
		Date:        day,
		Description: c.Description,
		Color:       color,
		Priority:    c.Priority,
		SourceID:    c.ID,
		Recurring:   c.Recurrence != "",
	}
}

// Occurrences expands c into calendar events dated within [from, to].
func (c CustomEvent) Occurrences(from, to civil.Day) ([]Event, error) {
	if c.Recurrence == "" {
		if c.Date.Before(from) || c.Date.After(to) {
			return nil, nil
		}
		return []Event{c.event(CustomID(c.ID), c.Date)}, nil
	}

	opt, err := rrule.StrToROption(c.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence for %s: %w", c.ID, err)
	}
	opt.Dtstart = c.Date.Time()
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build recurrence for %s: %w", c.ID, err)
	}

	times := rule.Between(from.Time(), to.Time(), true)
	if len(times) > maxOccurrences {
		slog.Warn("truncating recurring calendar event", "id", c.ID, "occurrences", len(times))
		times = times[:maxOccurrences]
	}
	out := make([]Event, 0, len(times))
	for _, t := range times {
		day := civil.Of(t.UTC())
		out = append(out, c.event(OccurrenceID(c.ID, day), day))
	}
	return out, nil
}

// ExpandCustom expands every custom event into [from, to]. Events with a
// broken recurrence are logged and skipped.
func ExpandCustom(list []CustomEvent, from, to civil.Day) []Event {
	var out []Event
	for _, c := range list {
		events, err := c.Occurrences(from, to)
		if err != nil {
			slog.Warn("skipping custom event", "id", c.ID, "err", err)
			continue
		}
		out = append(out, events...)
	}
	return out
}
