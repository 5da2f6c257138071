package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
)

func TestRenderMonth(t *testing.T) {
	events := []calendar.Event{
		{ID: "birthday-e1-2025", Type: calendar.TypeBirthday, Title: "Maria Lopez's Birthday", Date: civil.MustParse("2025-03-15")},
		{ID: "anniversary-e1-2025", Type: calendar.TypeAnniversary, Title: "Maria Lopez - 5 years Work Anniversary", Date: civil.MustParse("2025-03-15")},
		{ID: "custom-c1", Type: calendar.TypeCustom, Title: "Offsite", Date: civil.MustParse("2025-03-20")},
	}

	tests := []struct {
		name      string
		weekStart time.Weekday
		header    string
		blanks    int
		firstDays string
	}{
		{name: "sunday start", weekStart: time.Sunday, header: "Sun", blanks: 6, firstDays: " 1"},
		{name: "monday start", weekStart: time.Monday, header: "Mon", blanks: 5, firstDays: " 1" + strings.Repeat(" ", cellWidth-2) + " 2"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			view := calendar.NewView(events, calendar.AllVisible(), tc.weekStart)
			var buf bytes.Buffer
			renderMonth(&buf, view.MonthGrid(2025, time.March), civil.MustParse("2025-03-10"))

			lines := strings.Split(buf.String(), "\n")
			if strings.TrimSpace(lines[0]) != "March 2025" {
				t.Fatalf("unexpected title %q", lines[0])
			}
			if !strings.HasPrefix(lines[1], tc.header) {
				t.Fatalf("expected header to start with %s, got %q", tc.header, lines[1])
			}
			if want := strings.Repeat(" ", tc.blanks*cellWidth) + tc.firstDays; lines[2] != want {
				t.Fatalf("expected first week %q, got %q", want, lines[2])
			}

			out := buf.String()
			for _, want := range []string{"10*", "15BA", "20C", "Mar 15  [birthday] Maria Lopez's Birthday", "[custom] Offsite  (custom-c1)"} {
				if !strings.Contains(out, want) {
					t.Fatalf("expected %q in output:\n%s", want, out)
				}
			}
			if strings.Contains(out, "(birthday-e1-2025)") {
				t.Fatalf("derived events should not show an editable id:\n%s", out)
			}
		})
	}
}

func TestRenderMonthOverflow(t *testing.T) {
	day := civil.MustParse("2025-06-01")
	var events []calendar.Event
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		events = append(events, calendar.Event{ID: "custom-" + id, Type: calendar.TypeCustom, Title: id, Date: day})
	}
	view := calendar.NewView(events, calendar.AllVisible(), time.Sunday)

	var buf bytes.Buffer
	renderMonth(&buf, view.MonthGrid(2025, time.June), civil.MustParse("2025-05-01"))
	out := buf.String()
	if !strings.Contains(out, " 1CCC+") {
		t.Fatalf("expected overflow marker:\n%s", out)
	}
	if !strings.Contains(out, "Jun 01  +2 more") {
		t.Fatalf("expected overflow count:\n%s", out)
	}
}

func TestRenderSectionEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderSection(&buf, "Today", nil)
	if buf.String() != "Today\n  nothing scheduled\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
