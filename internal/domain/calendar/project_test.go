package calendar

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onehr/internal/domain/civil"
	"onehr/internal/domain/employees"
)

func TestProjectBirthdayAndAnniversary(t *testing.T) {
	roster := []employees.Employee{{
		ID:          "e1",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: "1990-03-15",
		StartDate:   "2020-03-15",
	}}

	events := Project(roster, 2025)
	require.Len(t, events, 2)

	birthday := events[0]
	assert.Equal(t, "birthday-e1-2025", birthday.ID)
	assert.Equal(t, TypeBirthday, birthday.Type)
	assert.Equal(t, civil.MustParse("2025-03-15"), birthday.Date)
	assert.Equal(t, "Ada Lovelace", birthday.EmployeeName)

	anniversary := events[1]
	assert.Equal(t, "anniversary-e1-2025", anniversary.ID)
	assert.Equal(t, civil.MustParse("2025-03-15"), anniversary.Date)
	assert.Equal(t, 5, anniversary.YearsOfService)
	assert.Contains(t, anniversary.Title, "5 years")
}

func TestProjectAnniversaryYears(t *testing.T) {
	tests := []struct {
		name      string
		startDate string
		want      int
	}{
		{name: "hired in viewed year", startDate: "2025-01-10", want: 0},
		{name: "hired after viewed year", startDate: "2027-06-01", want: 0},
		{name: "one year", startDate: "2024-12-31", want: 1},
		{name: "many years", startDate: "2001-07-04", want: 24},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			events := Project([]employees.Employee{{ID: "e1", FirstName: "Ada", StartDate: tc.startDate}}, 2025)
			if tc.want == 0 {
				assert.Empty(t, events)
				return
			}
			require.Len(t, events, 1)
			assert.Equal(t, tc.want, events[0].YearsOfService)
		})
	}
}

func TestProjectSingularYearLabel(t *testing.T) {
	events := Project([]employees.Employee{{ID: "e1", FirstName: "Ada", StartDate: "2024-05-01"}}, 2025)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Title, "1 year ")
	assert.NotContains(t, events[0].Title, "1 years")
}

func TestProjectSkipsMissingAndMalformedDates(t *testing.T) {
	roster := []employees.Employee{
		{ID: "none", FirstName: "No", LastName: "Dates"},
		{ID: "bad", FirstName: "Bad", DateOfBirth: "15/03/1990", StartDate: "soon"},
		{ID: "suffix", FirstName: "Odd", DateOfBirth: "1990-03-15Tgarbage", StartDate: "2020-03-15 sometime"},
		{ID: "", FirstName: "Anonymous", DateOfBirth: "1990-03-15"},
	}
	assert.Empty(t, Project(roster, 2025))
}

func TestProjectLeapDayClampsToFeb28(t *testing.T) {
	roster := []employees.Employee{{ID: "e1", FirstName: "Leap", DateOfBirth: "2000-02-29", StartDate: "2016-02-29"}}

	for year, want := range map[int]string{2025: "2025-02-28", 2028: "2028-02-29"} {
		events := Project(roster, year)
		require.Len(t, events, 2)
		for _, ev := range events {
			assert.Equal(t, want, ev.Date.String(), "%s in %d", ev.Type, year)
		}
	}
}

func TestProjectIgnoresLocalZone(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("UTC-10", -10*3600)
	defer func() { time.Local = orig }()

	events := Project([]employees.Employee{{ID: "e1", DateOfBirth: "1990-03-15T00:00:00Z"}}, 2025)
	require.Len(t, events, 1)
	assert.Equal(t, "2025-03-15", events[0].Date.String())
}

func TestProjectIsIdempotent(t *testing.T) {
	roster := []employees.Employee{
		{ID: "e1", DateOfBirth: "1990-03-15", StartDate: "2020-03-15"},
		{ID: "e2", DateOfBirth: "1985-11-02", StartDate: "2018-01-08"},
	}

	board := NewBoard()
	require.NoError(t, board.Replace(SourceEmployees, Project(roster, 2025)))
	first := ids(board.Events())
	require.NoError(t, board.Replace(SourceEmployees, Project(roster, 2025)))

	assert.Equal(t, first, ids(board.Events()))
	assert.Len(t, first, 4)
	assert.Len(t, Merge(Project(roster, 2025), Project(roster, 2025)), 4)
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	sort.Strings(out)
	return out
}
