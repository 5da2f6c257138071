package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
)

const cellWidth = 8

var typeMarks = map[calendar.EventType]string{
	calendar.TypeBirthday:      "B",
	calendar.TypeAnniversary:   "A",
	calendar.TypeHoliday:       "H",
	calendar.TypeCustom:        "C",
	calendar.TypeNotification:  "N",
	calendar.TypeLicense:       "L",
	calendar.TypeCertification: "R",
	calendar.TypeImmigration:   "I",
}

// renderMonth draws the grid: the day number, a "*" on today and one letter
// per listed event, then the events of each day below.
func renderMonth(w io.Writer, grid calendar.Grid, today civil.Day) {
	width := cellWidth * 7
	title := grid.Title()
	pad := (width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", pad), title)

	for _, name := range grid.WeekdayHeaders() {
		fmt.Fprintf(w, "%-*s", cellWidth, name)
	}
	fmt.Fprintln(w)

	for _, week := range grid.Weeks() {
		var line strings.Builder
		for _, cell := range week {
			label := cellLabel(cell, today)
			line.WriteString(label)
			if gap := cellWidth - lipgloss.Width(label); gap > 0 {
				line.WriteString(strings.Repeat(" ", gap))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}

	fmt.Fprintln(w)
	for _, cell := range grid.Cells {
		if len(cell.Events) == 0 {
			continue
		}
		for _, ev := range cell.Events {
			fmt.Fprintf(w, "%s  %s\n", cell.Date.Time().Format("Jan 02"), eventLine(ev))
		}
		if cell.Overflow > 0 {
			fmt.Fprintf(w, "%s  +%d more\n", cell.Date.Time().Format("Jan 02"), cell.Overflow)
		}
	}
}

func cellLabel(cell calendar.Cell, today civil.Day) string {
	if cell.Blank() {
		return ""
	}
	label := fmt.Sprintf("%2d", cell.Date.Day)
	if cell.Date == today {
		label += "*"
	}
	for _, ev := range cell.Events {
		label += mark(ev.Type)
	}
	if cell.Overflow > 0 {
		label += "+"
	}
	return label
}

// mark is the one letter tag of t in the type's legend color. Color is
// dropped when the output is not a terminal.
func mark(t calendar.EventType) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color())).Render(typeMarks[t])
}

func eventLine(ev calendar.Event) string {
	tag := lipgloss.NewStyle().Foreground(lipgloss.Color(ev.Type.Color())).Render("[" + string(ev.Type) + "]")
	line := fmt.Sprintf("%s %s", tag, ev.Title)
	if ev.Editable() {
		line += "  (" + ev.ID + ")"
	}
	return line
}

func renderSection(w io.Writer, heading string, events []calendar.Event) {
	fmt.Fprintln(w, heading)
	if len(events) == 0 {
		fmt.Fprintln(w, "  nothing scheduled")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "  %s  %s\n", ev.Date.Time().Format("Mon Jan 02"), eventLine(ev))
	}
}
