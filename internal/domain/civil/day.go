// Package civil holds a zone-free calendar date.
//
// Dates coming from the API ("2025-03-15" or an RFC3339 timestamp) are read
// by their written year/month/day and never converted through a location, so
// a birthday stored as March 15 stays March 15 for every viewer.
package civil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid date")

type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// New normalizes out-of-range values the way time.Date does.
func New(year int, month time.Month, day int) Day {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of returns the calendar date of t in t's own location.
func Of(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Today returns the current date in loc (time.Local when nil).
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Of(now.In(loc))
}

// timestampLayouts are the full forms a date may arrive in. The time of day
// must be well formed but only the written date part is used.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// Parse accepts YYYY-MM-DD or a timestamp starting with it (RFC3339 or the
// space separated form Postgres prints).
func Parse(value string) (Day, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(Layout) {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	parsed, err := time.Parse(Layout, value[:len(Layout)])
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	if len(value) > len(Layout) && !isTimestamp(value) {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return Of(parsed), nil
}

func isTimestamp(value string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func MustParse(value string) Day {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time is midnight UTC of d.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In is midnight of d in loc.
func (d Day) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) AddDays(n int) Day {
	return New(d.Year, d.Month, d.Day+n)
}

func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Day) Before(other Day) bool {
	return d.Compare(other) < 0
}

func (d Day) After(other Day) bool {
	return d.Compare(other) > 0
}

func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// DaysUntil counts whole days from d to other (negative when other is earlier).
func (d Day) DaysUntil(other Day) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		*d = Day{}
		return nil
	}
	parsed, err := Parse(*raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Recurring places month/day into year. Feb 29 falls back to Feb 28 when
// year is not a leap year.
func Recurring(year int, month time.Month, day int) Day {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return Day{Year: year, Month: month, Day: day}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
