package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"onehr/internal/domain/civil"
)

// MaxChips is how many events a month cell lists before collapsing the rest
// into an overflow count.
const MaxChips = 3

var typeRank = func() map[EventType]int {
	rank := make(map[EventType]int, len(AllTypes))
	for i, t := range AllTypes {
		rank[t] = i
	}
	return rank
}()

// View is a read-only, visibility-filtered projection of the event
// collection, ordered by date, type and title.
type View struct {
	events    []Event
	weekStart time.Weekday
}

func NewView(events []Event, visible Visibility, weekStart time.Weekday) View {
	filtered := visible.Filter(events)
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if typeRank[a.Type] != typeRank[b.Type] {
			return typeRank[a.Type] < typeRank[b.Type]
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	return View{events: filtered, weekStart: weekStart}
}

func (v View) Events() []Event {
	return append([]Event(nil), v.events...)
}

func (v View) WeekStart() time.Weekday {
	return v.weekStart
}

// Day selects events by exact calendar-day equality.
func (v View) Day(day civil.Day) []Event {
	var out []Event
	for _, ev := range v.events {
		if ev.Date == day {
			out = append(out, ev)
		}
	}
	return out
}

func (v View) Today(today civil.Day) []Event {
	return v.Day(today)
}

// Upcoming returns events after today up to and including today+days,
// soonest first.
func (v View) Upcoming(today civil.Day, days int) []Event {
	end := today.AddDays(days)
	var out []Event
	for _, ev := range v.events {
		if ev.Date.After(today) && !ev.Date.After(end) {
			out = append(out, ev)
		}
	}
	return out
}

// Between returns events in [from, to].
func (v View) Between(from, to civil.Day) []Event {
	var out []Event
	for _, ev := range v.events {
		if !ev.Date.Before(from) && !ev.Date.After(to) {
			out = append(out, ev)
		}
	}
	return out
}

type Cell struct {
	Date     civil.Day `json:"date"`
	Events   []Event   `json:"events"`
	Overflow int       `json:"overflow"`
}

func (c Cell) Blank() bool {
	return c.Date.IsZero()
}

type Grid struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	WeekStart     string     `json:"weekStart"`
	LeadingBlanks int        `json:"leadingBlanks"`
	Cells         []Cell     `json:"cells"`
}

// MonthGrid lays out one cell per day of the month, preceded by enough blank
// positions to align the first day under its weekday column.
func (v View) MonthGrid(year int, month time.Month) Grid {
	first := civil.Day{Year: year, Month: month, Day: 1}
	grid := Grid{
		Year:          year,
		Month:         month,
		WeekStart:     v.weekStart.String(),
		LeadingBlanks: (int(first.Weekday()) - int(v.weekStart) + 7) % 7,
	}

	byDay := make(map[civil.Day][]Event)
	for _, ev := range v.events {
		if ev.Date.Year == year && ev.Date.Month == month {
			byDay[ev.Date] = append(byDay[ev.Date], ev)
		}
	}

	days := civil.DaysIn(year, month)
	grid.Cells = make([]Cell, 0, days)
	for d := 1; d <= days; d++ {
		day := civil.Day{Year: year, Month: month, Day: d}
		events := byDay[day]
		cell := Cell{Date: day, Events: events}
		if len(events) > MaxChips {
			cell.Events = events[:MaxChips]
			cell.Overflow = len(events) - MaxChips
		}
		if cell.Events == nil {
			cell.Events = []Event{}
		}
		grid.Cells = append(grid.Cells, cell)
	}
	return grid
}

// Weeks splits the grid into rows of seven, padding with blank cells.
func (g Grid) Weeks() [][]Cell {
	slots := make([]Cell, g.LeadingBlanks, g.LeadingBlanks+len(g.Cells)+6)
	slots = append(slots, g.Cells...)
	for len(slots)%7 != 0 {
		slots = append(slots, Cell{})
	}
	weeks := make([][]Cell, 0, len(slots)/7)
	for i := 0; i < len(slots); i += 7 {
		weeks = append(weeks, slots[i:i+7])
	}
	return weeks
}

// WeekdayHeaders are short weekday names starting at the grid's week start.
func (g Grid) WeekdayHeaders() []string {
	start := parseWeekdayName(g.WeekStart)
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(start) + i) % 7).String()[:3]
	}
	return out
}

func (g Grid) Title() string {
	return fmt.Sprintf("%s %d", g.Month, g.Year)
}

// ParseWeekday accepts an English weekday name or three letter prefix.
func ParseWeekday(value string) (time.Weekday, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if value == name || value == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", value)
}

func parseWeekdayName(value string) time.Weekday {
	d, err := ParseWeekday(value)
	if err != nil {
		return time.Sunday
	}
	return d
}
